package service

import (
	"context"
	"testing"

	"github.com/spec-kit/support-console/internal/backend"
	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

type fakeSupportBackend struct {
	drafts    []domain.TicketDraft
	feedback  []domain.Feedback
	queries   []string
	providers []string
	err       error
}

func (f *fakeSupportBackend) CreateTicket(_ context.Context, draft domain.TicketDraft) (string, error) {
	f.drafts = append(f.drafts, draft)
	return "T-100", f.err
}

func (f *fakeSupportBackend) SubmitFeedback(_ context.Context, fb domain.Feedback) error {
	f.feedback = append(f.feedback, fb)
	return f.err
}

func (f *fakeSupportBackend) SearchKnowledge(_ context.Context, query, _ string) (backend.KnowledgeResults, error) {
	f.queries = append(f.queries, query)
	return backend.KnowledgeResults{Query: query, TotalFound: 1}, f.err
}

func (f *fakeSupportBackend) RunProviderAction(_ context.Context, provider string, action backend.ProviderAction) error {
	f.providers = append(f.providers, provider+"/"+string(action))
	return f.err
}

func TestSupportDesk_CreateTicket(t *testing.T) {
	b := &fakeSupportBackend{}
	desk := NewSupportDesk(b, fixedIdentity("u1"), nil)
	ctx := context.Background()

	res := desk.CreateTicket(ctx, domain.TicketDraft{Subject: "Printer", Category: " "})
	if res.OK || !apperrors.HasCode(res.Err, apperrors.CodeValidation) {
		t.Fatalf("Expected validation error, got %+v", res)
	}
	missing, _ := apperrors.ToDomainError(res.Err).Details["missing"].([]string)
	if len(missing) != 2 || missing[0] != "category" || missing[1] != "description" {
		t.Errorf("Unexpected missing fields %v", missing)
	}
	if len(b.drafts) != 0 {
		t.Error("Expected no backend call")
	}

	res = desk.CreateTicket(ctx, domain.TicketDraft{Subject: " Printer ", Category: "hardware", Description: "jammed"})
	if !res.OK || res.Value != "T-100" || b.drafts[0].Subject != "Printer" {
		t.Errorf("Unexpected result %+v drafts %+v", res, b.drafts)
	}
}

func TestSupportDesk_SubmitFeedback(t *testing.T) {
	b := &fakeSupportBackend{}
	desk := NewSupportDesk(b, fixedIdentity("u1"), nil)
	ctx := context.Background()

	invalid := []domain.Feedback{
		{Rating: 0, Category: "general", Message: "ok"},
		{Rating: 6, Category: "general", Message: "ok"},
		{Rating: 3, Message: "ok"},
		{Rating: 3, Category: "general", Message: "ok", Email: "nope"},
	}
	for _, fb := range invalid {
		if res := desk.SubmitFeedback(ctx, fb); res.OK {
			t.Errorf("Expected %+v rejected", fb)
		}
	}

	if res := desk.SubmitFeedback(ctx, domain.Feedback{Rating: 5, Category: "general", Message: "great"}); !res.OK {
		t.Fatalf("submit: %v", res.Err)
	}
	if len(b.feedback) != 1 || b.feedback[0].CustomerID != "u1" {
		t.Errorf("Expected customer id filled in, got %+v", b.feedback)
	}
}

func TestSupportDesk_SearchAndProviders(t *testing.T) {
	b := &fakeSupportBackend{}
	desk := NewSupportDesk(b, nil, nil)
	ctx := context.Background()

	if res := desk.SearchKnowledge(ctx, "  ", ""); res.OK {
		t.Error("Expected blank query rejected")
	}
	if res := desk.SearchKnowledge(ctx, " reset password ", ""); !res.OK || res.Value.Query != "reset password" {
		t.Errorf("Unexpected search result %+v", res)
	}

	if res := desk.RunProviderAction(ctx, "", backend.ProviderTest); res.OK {
		t.Error("Expected blank provider rejected")
	}
	b.err = apperrors.NewLogicalError("provider unreachable")
	res := desk.RunProviderAction(ctx, "zendesk", backend.ProviderToggle)
	if res.OK || apperrors.ToDomainError(res.Err).Message != "provider unreachable" {
		t.Errorf("Expected logical failure, got %+v", res)
	}
	if len(b.providers) != 1 || b.providers[0] != "zendesk/toggle" {
		t.Errorf("Unexpected provider calls %v", b.providers)
	}
}
