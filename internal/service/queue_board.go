package service

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/domain"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// AssignFailedAlert is the blocking alert shown when an assignment fails.
const AssignFailedAlert = "Failed to assign ticket. Please try again."

// ControlState is the state of a ticket's assign control.
type ControlState string

const (
	ControlReady    ControlState = "ready"
	ControlPending  ControlState = "pending"
	ControlAssigned ControlState = "assigned"
)

// Assigner performs the assignment exchange with the backend.
type Assigner interface {
	AssignTicket(ctx context.Context, ticketID, agentID string) error
}

// Alerter surfaces blocking alerts to the user.
type Alerter func(message string)

// QueueItemView is how one ticket renders in the queue.
type QueueItemView struct {
	ID             string                `json:"id"`
	Subject        string                `json:"subject"`
	Priority       domain.TicketPriority `json:"priority"`
	Assignee       string                `json:"assignee,omitempty"`
	AssignedToSelf bool                  `json:"assigned_to_self"`
	Control        ControlState          `json:"control"`
	Label          string                `json:"label"`
	Disabled       bool                  `json:"disabled"`
	Link           string                `json:"link,omitempty"`
}

// QueueBoardDependencies wires collaborators for QueueBoard.
type QueueBoardDependencies struct {
	Assigner Assigner
	AgentID  IdentityFunc
	Alert    Alerter
	Logger   *zap.Logger
}

type queueEntry struct {
	ticket  domain.Ticket
	control ControlState
}

// QueueBoard lets an agent claim unassigned tickets with optimistic feedback.
type QueueBoard struct {
	assigner Assigner
	agentID  IdentityFunc
	alert    Alerter
	logger   *zap.Logger

	mu      sync.RWMutex
	entries map[string]*queueEntry
	order   []string
	self    string
}

// NewQueueBoard creates an empty board.
func NewQueueBoard(deps QueueBoardDependencies) *QueueBoard {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Alert == nil {
		logger := deps.Logger
		deps.Alert = func(message string) { logger.Warn("alert", zap.String("message", message)) }
	}
	if deps.AgentID == nil {
		deps.AgentID = func(context.Context) string { return domain.UnknownAgent }
	}
	return &QueueBoard{
		assigner: deps.Assigner,
		agentID:  deps.AgentID,
		alert:    deps.Alert,
		logger:   deps.Logger,
		entries:  make(map[string]*queueEntry),
	}
}

// Add puts a ticket on the board. Tickets already present are left unchanged.
func (q *QueueBoard) Add(ticket domain.Ticket) bool {
	if ticket.ID == "" {
		return false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.entries[ticket.ID]; exists {
		return false
	}
	control := ControlReady
	if ticket.Assigned() {
		control = ControlAssigned
	}
	q.entries[ticket.ID] = &queueEntry{ticket: ticket, control: control}
	q.order = append(q.order, ticket.ID)
	return true
}

// MarkAssigned records an assignment learned from the backend. Assigned tickets never change again.
func (q *QueueBoard) MarkAssigned(ticketID, agentID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.entries[ticketID]
	if !ok || entry.control == ControlAssigned {
		return false
	}
	assignee := agentID
	entry.ticket.Assignee = &assignee
	entry.control = ControlAssigned
	return true
}

// Assign claims a ticket for the signed-in agent.
func (q *QueueBoard) Assign(ctx context.Context, ticketID string) Result[QueueItemView] {
	agentID := q.agentID(ctx)

	q.mu.Lock()
	entry, ok := q.entries[ticketID]
	if !ok {
		q.mu.Unlock()
		return Fail[QueueItemView](apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID}))
	}
	if entry.control != ControlReady {
		state := entry.control
		q.mu.Unlock()
		return Fail[QueueItemView](apperrors.NewConflict("ticket is not assignable", map[string]any{"ticket_id": ticketID, "control": state}))
	}
	entry.control = ControlPending
	q.self = agentID
	q.mu.Unlock()

	err := q.assigner.AssignTicket(ctx, ticketID, agentID)

	q.mu.Lock()
	if err != nil {
		entry.control = ControlReady
		q.mu.Unlock()
		q.logger.Warn("assign ticket failed", zap.String("ticket_id", ticketID), zap.Error(err))
		q.alert(AssignFailedAlert)
		cause := apperrors.ToDomainError(err)
		return Fail[QueueItemView](&apperrors.DomainError{
			Code:       cause.Code,
			Message:    AssignFailedAlert,
			HTTPStatus: cause.HTTPStatus,
			Err:        err,
		})
	}
	assignee := agentID
	entry.ticket.Assignee = &assignee
	entry.control = ControlAssigned
	view := q.viewLocked(entry)
	q.mu.Unlock()

	q.logger.Info("ticket assigned", zap.String("ticket_id", ticketID), zap.String("agent_id", agentID))
	return Ok(view)
}

// Render returns the current queue view. It never issues backend calls.
func (q *QueueBoard) Render() []QueueItemView {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]QueueItemView, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.viewLocked(q.entries[id]))
	}
	return out
}

// SetSelf records the identity treated as "you" when rendering assignees.
func (q *QueueBoard) SetSelf(agentID string) {
	q.mu.Lock()
	q.self = agentID
	q.mu.Unlock()
}

func (q *QueueBoard) viewLocked(entry *queueEntry) QueueItemView {
	view := QueueItemView{
		ID:       entry.ticket.ID,
		Subject:  entry.ticket.Subject,
		Priority: entry.ticket.Priority,
		Control:  entry.control,
	}
	if entry.ticket.Assignee != nil {
		view.Assignee = *entry.ticket.Assignee
		view.AssignedToSelf = q.self != "" && view.Assignee == q.self
	}
	switch entry.control {
	case ControlReady:
		view.Label = "Assign"
	case ControlPending:
		view.Label = "Assigning"
		view.Disabled = true
	case ControlAssigned:
		view.Label = "Assigned"
		view.Disabled = true
		view.Link = "/agent/chat/" + url.PathEscape(entry.ticket.ID)
	}
	return view
}
