package domain

import "time"

// SenderRole indicates who authored a transcript message.
type SenderRole string

const (
	SenderAgent    SenderRole = "agent"
	SenderCustomer SenderRole = "customer"
	SenderSystem   SenderRole = "system"
)

// Message is one immutable entry in a chat transcript.
type Message struct {
	ID             string
	ConversationID string
	Sender         SenderRole
	Text           string
	// Timestamp is for display only; ordering is arrival order.
	Timestamp time.Time
}
