package models

import "time"

// ChatMessage is one immutable conversation turn.
type ChatMessage struct {
	ID        string    `json:"id" badgerhold:"key"`
	CompanyID string    `json:"company_id" badgerhold:"index"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id" badgerhold:"index"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"` // cited document names, assistant turns only
	CreatedAt time.Time `json:"created_at"`
}

// Source annotates a cited document with its retrieval relevance.
type Source struct {
	Name      string  `json:"name"`
	Relevance float64 `json:"relevance"` // score x 100, one decimal place
}
