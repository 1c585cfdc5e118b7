package badger

import (
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// ChatStorage implements the ChatStorage interface for Badger
type ChatStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChatStorage creates a new ChatStorage instance
func NewChatStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChatStorage {
	return &ChatStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ChatStorage) SaveMessage(msg *models.ChatMessage) error {
	if msg.ID == "" {
		return fmt.Errorf("message ID is required")
	}
	if msg.CompanyID == "" {
		return fmt.Errorf("company ID is required")
	}
	if msg.Role != "user" && msg.Role != "assistant" {
		return fmt.Errorf("invalid message role: %s", msg.Role)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	if err := s.db.Store().Insert(msg.ID, msg); err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// SessionHistory returns up to limit most recent turns for a session,
// oldest first.
func (s *ChatStorage) SessionHistory(companyID, sessionID string, limit int) ([]*models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := s.db.Store().Find(&msgs, badgerhold.Where("CompanyID").Eq(companyID).And("SessionID").Eq(sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to load session history: %w", err)
	}
	return trimHistory(msgs, limit), nil
}

// History returns up to limit most recent turns for the company, oldest
// first. An empty sessionID spans all sessions.
func (s *ChatStorage) History(companyID, sessionID string, limit int) ([]*models.ChatMessage, error) {
	if sessionID != "" {
		return s.SessionHistory(companyID, sessionID, limit)
	}

	var msgs []models.ChatMessage
	err := s.db.Store().Find(&msgs, badgerhold.Where("CompanyID").Eq(companyID))
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return trimHistory(msgs, limit), nil
}

// DeleteHistory removes a company's turns, optionally narrowed to one
// session, and returns the number deleted.
func (s *ChatStorage) DeleteHistory(companyID, sessionID string) (int, error) {
	query := badgerhold.Where("CompanyID").Eq(companyID)
	if sessionID != "" {
		query = query.And("SessionID").Eq(sessionID)
	}

	count, err := s.db.Store().Count(&models.ChatMessage{}, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	if err := s.db.Store().DeleteMatching(&models.ChatMessage{}, query); err != nil {
		return 0, fmt.Errorf("failed to delete chat history: %w", err)
	}

	s.logger.Debug().
		Str("company_id", companyID).
		Str("session_id", sessionID).
		Int("deleted", int(count)).
		Msg("Chat history deleted")

	return int(count), nil
}

// trimHistory sorts turns chronologically and keeps the most recent limit
func trimHistory(msgs []models.ChatMessage, limit int) []*models.ChatMessage {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	result := make([]*models.ChatMessage, len(msgs))
	for i := range msgs {
		result[i] = &msgs[i]
	}
	return result
}
