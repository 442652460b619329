package dto

// CreateTicketRequest payload for a customer ticket.
type CreateTicketRequest struct {
	Subject     string `json:"subject" form:"subject"`
	Category    string `json:"category" form:"category"`
	Description string `json:"description" form:"description"`
}

// FeedbackRequest payload for a customer rating.
type FeedbackRequest struct {
	Rating   int    `json:"rating" form:"rating"`
	Category string `json:"category" form:"category"`
	Message  string `json:"message" form:"message"`
	Email    string `json:"email" form:"email"`
}
