package service

import (
	"context"
	"net/mail"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/backend"
	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// SupportBackend is the subset of the ticket backend used by SupportDesk.
type SupportBackend interface {
	CreateTicket(ctx context.Context, draft domain.TicketDraft) (string, error)
	SubmitFeedback(ctx context.Context, fb domain.Feedback) error
	SearchKnowledge(ctx context.Context, query, category string) (backend.KnowledgeResults, error)
	RunProviderAction(ctx context.Context, provider string, action backend.ProviderAction) error
}

// SupportDesk validates and forwards ticket, feedback, knowledge and admin requests.
type SupportDesk struct {
	backend    SupportBackend
	customerID IdentityFunc
	logger     *zap.Logger
}

// NewSupportDesk creates the desk.
func NewSupportDesk(b SupportBackend, customerID IdentityFunc, logger *zap.Logger) *SupportDesk {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SupportDesk{backend: b, customerID: customerID, logger: logger}
}

// CreateTicket submits a draft after checking required fields.
func (d *SupportDesk) CreateTicket(ctx context.Context, draft domain.TicketDraft) Result[string] {
	draft.Subject = strings.TrimSpace(draft.Subject)
	draft.Category = strings.TrimSpace(draft.Category)
	draft.Description = strings.TrimSpace(draft.Description)
	if missing := draft.Missing(); len(missing) > 0 {
		return Fail[string](apperrors.NewValidationError("Please fill in all required fields.", map[string]any{"missing": missing}))
	}
	id, err := d.backend.CreateTicket(ctx, draft)
	if err != nil {
		d.logger.Warn("create ticket failed", zap.Error(err))
		return Fail[string](err)
	}
	d.logger.Info("ticket created", zap.String("ticket_id", id))
	return Ok(id)
}

// SubmitFeedback sends a rating from the current customer.
func (d *SupportDesk) SubmitFeedback(ctx context.Context, fb domain.Feedback) Result[struct{}] {
	fb.Category = strings.TrimSpace(fb.Category)
	fb.Message = strings.TrimSpace(fb.Message)
	fb.Email = strings.TrimSpace(fb.Email)
	if fb.Rating < 1 || fb.Rating > 5 {
		return Fail[struct{}](apperrors.NewValidationError("Please select a rating between 1 and 5.", map[string]any{"field": "rating"}))
	}
	if fb.Category == "" || fb.Message == "" {
		return Fail[struct{}](apperrors.NewValidationError("Please fill in all required fields.", nil))
	}
	if fb.Email != "" {
		if addr, err := mail.ParseAddress(fb.Email); err != nil || addr.Address != fb.Email {
			return Fail[struct{}](apperrors.NewValidationError(MsgInvalidEmail, map[string]any{"field": "email"}))
		}
	}
	if fb.CustomerID == "" && d.customerID != nil {
		fb.CustomerID = d.customerID(ctx)
	}
	if err := d.backend.SubmitFeedback(ctx, fb); err != nil {
		d.logger.Warn("submit feedback failed", zap.Error(err))
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}

// SearchKnowledge forwards a query to the backend.
func (d *SupportDesk) SearchKnowledge(ctx context.Context, query, category string) Result[backend.KnowledgeResults] {
	query = strings.TrimSpace(query)
	if query == "" {
		return Fail[backend.KnowledgeResults](apperrors.NewValidationError("search query is required", nil))
	}
	res, err := d.backend.SearchKnowledge(ctx, query, strings.TrimSpace(category))
	if err != nil {
		return Fail[backend.KnowledgeResults](err)
	}
	return Ok(res)
}

// RunProviderAction tests or toggles an integration provider.
func (d *SupportDesk) RunProviderAction(ctx context.Context, provider string, action backend.ProviderAction) Result[struct{}] {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return Fail[struct{}](apperrors.NewValidationError("provider is required", nil))
	}
	if err := d.backend.RunProviderAction(ctx, provider, action); err != nil {
		d.logger.Info("provider action failed", zap.String("provider", provider), zap.String("action", string(action)), zap.Error(err))
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}
