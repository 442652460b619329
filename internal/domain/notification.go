package domain

import "time"

// NotificationKind identifies what a transient alert is about.
type NotificationKind string

const (
	NotificationNewTicket       NotificationKind = "new_ticket"
	NotificationCustomerMessage NotificationKind = "customer_message"
	NotificationTicketAssigned  NotificationKind = "ticket_assigned"
)

// Notification is a transient alert shown for an inbound event.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Link      string           `json:"link,omitempty"`
	Payload   any              `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
