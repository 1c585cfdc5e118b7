package interfaces

import (
	"context"

	"github.com/luminahr/knowledge/internal/models"
)

// ChatRequest is one user turn in a grounded conversation.
type ChatRequest struct {
	CompanyID string `json:"-"`
	UserID    string `json:"-"`

	Message string `json:"message" validate:"required,min=1"`

	// SessionID groups turns into a conversation. A fresh id is
	// generated when empty.
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the assistant's reply with its grounding evidence.
type ChatResponse struct {
	Response  string          `json:"response"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
	Reasoning string          `json:"reasoning"`
}

// ChatService answers questions grounded in the tenant's document
// knowledge base and persists both turns of each exchange.
type ChatService interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// History returns recent turns for the tenant, optionally narrowed
	// to one session, in chronological order.
	History(ctx context.Context, companyID, sessionID string, limit int) ([]*models.ChatMessage, error)

	// ClearHistory deletes turns and returns the number removed.
	ClearHistory(ctx context.Context, companyID, sessionID string) (int, error)

	// HealthCheck verifies the chat pipeline's external collaborators.
	HealthCheck(ctx context.Context) error
}
