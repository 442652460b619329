package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-console/internal/domain"
)

// EventType enumerates realtime frame identifiers.
type EventType string

const (
	EventNewTicket       EventType = "new_ticket"
	EventCustomerMessage EventType = "customer_message"
	EventTicketAssigned  EventType = "ticket_assigned"
	EventStatusUpdate    EventType = "status_update"
	EventAgentMessage    EventType = "agent_message"
)

// ErrMalformedFrame is returned when an inbound frame is not a JSON object with a type.
var ErrMalformedFrame = errors.New("malformed realtime frame")

// IsKnown reports whether t is an inbound type the console routes.
func IsKnown(t EventType) bool {
	switch t {
	case EventNewTicket, EventCustomerMessage, EventTicketAssigned, EventStatusUpdate:
		return true
	}
	return false
}

// Event is a parsed inbound realtime frame.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	AgentID    string          `json:"agent_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	ReceivedAt time.Time       `json:"received_at"`
	Raw        []byte          `json:"-"`
}

type frame struct {
	Type    EventType       `json:"type"`
	Data    json.RawMessage `json:"data"`
	AgentID string          `json:"agent_id"`
	Status  string          `json:"status"`
}

// ParseFrame decodes a raw text frame into an Event.
func ParseFrame(raw []byte, receivedAt time.Time) (Event, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       f.Type,
		Data:       f.Data,
		AgentID:    f.AgentID,
		Status:     f.Status,
		ReceivedAt: receivedAt,
		Raw:        raw,
	}, nil
}

// Decode unmarshals the event data into out.
func (e Event) Decode(out any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s event has no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	return nil
}

// NewTicketPayload is the data of a new_ticket frame.
type NewTicketPayload struct {
	ID       string                `json:"id"`
	TicketID string                `json:"ticket_id"`
	Subject  string                `json:"subject"`
	Priority domain.TicketPriority `json:"priority"`
}

// Key returns whichever ticket identifier the backend supplied.
func (p NewTicketPayload) Key() string {
	if p.ID != "" {
		return p.ID
	}
	return p.TicketID
}

// CustomerMessagePayload payload.
type CustomerMessagePayload struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	CustomerName   string `json:"customer_name,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TicketID   string `json:"ticket_id"`
	AgentID    string `json:"agent_id,omitempty"`
	AssignedAt string `json:"assigned_at,omitempty"`
	Status     string `json:"status,omitempty"`
}

// OutboundEvent is a frame the console sends over the realtime channel.
type OutboundEvent struct {
	Type           EventType          `json:"type"`
	Status         domain.AgentStatus `json:"status,omitempty"`
	ConversationID string             `json:"conversation_id,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// StatusUpdate builds the agent availability frame.
func StatusUpdate(status domain.AgentStatus) OutboundEvent {
	return OutboundEvent{Type: EventStatusUpdate, Status: status}
}

// AgentMessage builds the agent reply frame.
func AgentMessage(conversationID, message string) OutboundEvent {
	return OutboundEvent{Type: EventAgentMessage, ConversationID: conversationID, Message: message}
}
