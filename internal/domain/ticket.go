package domain

import "strings"

// TicketPriority enumerates queue urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

// Ticket is an item in the unassigned queue.
type Ticket struct {
	ID       string
	Subject  string
	Priority TicketPriority
	Assignee *string
}

// Assigned reports whether the ticket has an assignee.
func (t Ticket) Assigned() bool {
	return t.Assignee != nil && *t.Assignee != ""
}

// TicketDraft is the customer-side ticket creation payload.
type TicketDraft struct {
	Subject     string
	Category    string
	Description string
}

// Missing lists the required draft fields that are blank.
func (d TicketDraft) Missing() []string {
	var missing []string
	if strings.TrimSpace(d.Subject) == "" {
		missing = append(missing, "subject")
	}
	if strings.TrimSpace(d.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(d.Description) == "" {
		missing = append(missing, "description")
	}
	return missing
}
