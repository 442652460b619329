package domain

// Feedback is a customer satisfaction submission.
type Feedback struct {
	CustomerID string
	Rating     int
	Category   string
	Message    string
	Email      string
}

// KnowledgeArticle is a knowledge base search hit as returned by the backend.
type KnowledgeArticle struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Category       string  `json:"category"`
	RelevanceScore float64 `json:"relevance_score"`
}
