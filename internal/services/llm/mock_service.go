package llm

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/interfaces"
)

// MockService is a deterministic LLMService for tests and local runs
// without an API key.
type MockService struct {
	logger arbor.ILogger

	// FailWith, when set, makes every Chat call return this error.
	FailWith error
}

// Compile-time interface assertion
var _ interfaces.LLMService = (*MockService)(nil)

// NewMockService creates a mock LLM service
func NewMockService(logger arbor.ILogger) *MockService {
	logger.Warn().Msg("Mock LLM service enabled - using fake responses")
	return &MockService{logger: logger}
}

// Chat returns a canned response echoing the last message.
func (s *MockService) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	if s.FailWith != nil {
		return "", s.FailWith
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}
	last := messages[len(messages)-1]
	return fmt.Sprintf("Mock response to: %s", last.Content), nil
}

// HealthCheck always succeeds for the mock.
func (s *MockService) HealthCheck(ctx context.Context) error {
	return nil
}

// ModelName returns the mock model identifier.
func (s *MockService) ModelName() string {
	return "mock"
}

// Close is a no-op for the mock.
func (s *MockService) Close() error {
	return nil
}
