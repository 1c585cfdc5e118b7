package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// Service answers questions grounded in the tenant's knowledge base.
// Each successful exchange persists the user turn then the assistant
// turn; a failed generation persists nothing.
type Service struct {
	retrieval interfaces.RetrievalService
	llm       interfaces.LLMService
	storage   interfaces.ChatStorage
	config    *common.ChatConfig
	logger    arbor.ILogger
}

// NewService creates a new chat service
func NewService(
	retrieval interfaces.RetrievalService,
	llm interfaces.LLMService,
	storage interfaces.ChatStorage,
	config *common.ChatConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		retrieval: retrieval,
		llm:       llm,
		storage:   storage,
		config:    config,
		logger:    logger,
	}
}

// Chat answers one user turn. The session id groups turns into a
// conversation; a fresh id is generated when the request carries none.
func (s *Service) Chat(ctx context.Context, req *interfaces.ChatRequest) (*interfaces.ChatResponse, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = common.NewSessionID()
	}

	retrieved, err := s.retrieval.Retrieve(ctx, req.CompanyID, req.Message)
	if err != nil {
		return nil, err
	}

	history, err := s.storage.SessionHistory(req.CompanyID, sessionID, s.config.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}

	messages := make([]interfaces.Message, 0, len(history)+2)
	messages = append(messages, interfaces.Message{Role: "system", Content: systemPrompt})
	for _, turn := range history {
		messages = append(messages, interfaces.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, interfaces.Message{
		Role:    "user",
		Content: buildUserMessage(req.Message, retrieved.Context),
	})

	answer, err := s.llm.Chat(ctx, messages)
	if err != nil {
		// Nothing is persisted on generation failure, so a retry of the
		// same turn does not duplicate history.
		return nil, err
	}

	sourceNames := make([]string, len(retrieved.Sources))
	for i, src := range retrieved.Sources {
		sourceNames[i] = src.Name
	}

	now := time.Now().UTC()
	userTurn := &models.ChatMessage{
		ID:        common.NewMessageID(),
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
		SessionID: sessionID,
		Role:      "user",
		Content:   req.Message,
		CreatedAt: now,
	}
	if err := s.storage.SaveMessage(userTurn); err != nil {
		return nil, fmt.Errorf("failed to save user turn: %w", err)
	}

	assistantTurn := &models.ChatMessage{
		ID:        common.NewMessageID(),
		CompanyID: req.CompanyID,
		UserID:    req.UserID,
		SessionID: sessionID,
		Role:      "assistant",
		Content:   answer,
		Sources:   sourceNames,
		CreatedAt: now.Add(time.Millisecond),
	}
	if err := s.storage.SaveMessage(assistantTurn); err != nil {
		return nil, fmt.Errorf("failed to save assistant turn: %w", err)
	}

	s.logger.Info().
		Str("company_id", req.CompanyID).
		Str("session_id", sessionID).
		Int("sources", len(retrieved.Sources)).
		Msg("Chat exchange complete")

	sources := retrieved.Sources
	if sources == nil {
		sources = []models.Source{}
	}

	return &interfaces.ChatResponse{
		Response:  answer,
		Sources:   sources,
		SessionID: sessionID,
		Reasoning: buildReasoning(retrieved.Sources),
	}, nil
}

// History returns recent turns for the tenant in chronological order
func (s *Service) History(ctx context.Context, companyID, sessionID string, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.storage.History(companyID, sessionID, limit)
}

// ClearHistory deletes turns and returns the number removed
func (s *Service) ClearHistory(ctx context.Context, companyID, sessionID string) (int, error) {
	return s.storage.DeleteHistory(companyID, sessionID)
}

// HealthCheck verifies the LLM backend is reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	return s.llm.HealthCheck(ctx)
}

var _ interfaces.ChatService = (*Service)(nil)
