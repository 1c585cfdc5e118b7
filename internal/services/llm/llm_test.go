package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
)

func TestConvertMessages(t *testing.T) {
	t.Run("System message extracted", func(t *testing.T) {
		msgs, system, err := convertMessages([]interfaces.Message{
			{Role: "system", Content: "you are an HR assistant"},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
			{Role: "user", Content: "question"},
		})
		require.NoError(t, err)
		assert.Equal(t, "you are an HR assistant", system)
		assert.Len(t, msgs, 3, "system message must not appear in the message list")
	})

	t.Run("Empty messages rejected", func(t *testing.T) {
		_, _, err := convertMessages(nil)
		assert.Error(t, err)
	})

	t.Run("Requires a user message", func(t *testing.T) {
		_, _, err := convertMessages([]interfaces.Message{
			{Role: "system", Content: "prompt only"},
		})
		assert.Error(t, err)
	})
}

func TestNewClaudeService_RequiresAPIKey(t *testing.T) {
	_, err := NewClaudeService(&common.ClaudeConfig{Timeout: "120s"}, arbor.NewLogger())
	assert.Error(t, err)
}

func TestMockService(t *testing.T) {
	svc := NewMockService(arbor.NewLogger())

	t.Run("Echoes last message", func(t *testing.T) {
		resp, err := svc.Chat(context.Background(), []interfaces.Message{
			{Role: "user", Content: "how many leave days?"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Mock response to: how many leave days?", resp)
	})

	t.Run("FailWith injection", func(t *testing.T) {
		svc := NewMockService(arbor.NewLogger())
		svc.FailWith = fmt.Errorf("injected failure")
		_, err := svc.Chat(context.Background(), []interfaces.Message{{Role: "user", Content: "x"}})
		assert.Error(t, err)
	})

	t.Run("Always healthy", func(t *testing.T) {
		assert.NoError(t, svc.HealthCheck(context.Background()))
		assert.Equal(t, "mock", svc.ModelName())
	})
}

func TestNewLLMService_ProviderSwitch(t *testing.T) {
	logger := arbor.NewLogger()

	t.Run("Mock provider", func(t *testing.T) {
		cfg := common.NewDefaultConfig()
		cfg.LLM.Provider = "mock"
		svc, err := NewLLMService(cfg, logger)
		require.NoError(t, err)
		assert.Equal(t, "mock", svc.ModelName())
	})

	t.Run("Claude provider requires key", func(t *testing.T) {
		cfg := common.NewDefaultConfig()
		cfg.Claude.APIKey = ""
		_, err := NewLLMService(cfg, logger)
		assert.Error(t, err)
	})

	t.Run("Unknown provider", func(t *testing.T) {
		cfg := common.NewDefaultConfig()
		cfg.LLM.Provider = "groq"
		_, err := NewLLMService(cfg, logger)
		assert.Error(t, err)
	})
}
