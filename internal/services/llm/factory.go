package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based on configuration
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	logger.Info().Str("provider", cfg.LLM.Provider).Msg("Initializing LLM service")

	switch cfg.LLM.Provider {
	case "claude":
		return NewClaudeService(&cfg.Claude, logger)

	case "mock":
		return NewMockService(logger), nil

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'claude' or 'mock'", cfg.LLM.Provider)
	}
}
