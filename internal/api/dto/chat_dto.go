package dto

import "time"

// SubmitMessageRequest payload for sending a chat message.
type SubmitMessageRequest struct {
	Message string `json:"message" form:"message"`
}

// ScrollRequest moves the transcript viewport.
type ScrollRequest struct {
	Position int `json:"position" form:"position"`
}

// MessageView is one rendered transcript line.
type MessageView struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TranscriptView is the rendered conversation.
type TranscriptView struct {
	ConversationID string        `json:"conversation_id,omitempty"`
	Messages       []MessageView `json:"messages"`
	Typing         bool          `json:"typing"`
	ScrollPosition int           `json:"scroll_position"`
	FollowTail     bool          `json:"follow_tail"`
}

// StatusRequest payload for an agent availability change.
type StatusRequest struct {
	Status string `json:"status" form:"status"`
}
