// -----------------------------------------------------------------------
// Embedding Provider - Unit-normalized vectors from a local embedding server
// Talks to a llama-server style /embedding endpoint over localhost HTTP
// -----------------------------------------------------------------------

package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// maxEmbedChars bounds the input passed to the embedding model, after
// trimming, to limit cost and avoid provider-side errors.
const maxEmbedChars = 8000

// embeddingRequest represents an embedding request to the server
type embeddingRequest struct {
	Content string `json:"content"`
}

// embeddingResponse represents an embedding response from the server
type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

type batchEmbeddingResponse struct {
	Index     int         `json:"index"`
	Embedding [][]float32 `json:"embedding"` // Nested array format
}

// Service implements the EmbeddingService interface
type Service struct {
	url       string
	dimension int
	client    *http.Client
	logger    arbor.ILogger
	mockMode  bool

	// Readiness probe runs at most once per process. Concurrent first
	// callers block on the mutex; one winner probes, the rest reuse.
	mu       sync.Mutex
	ready    bool
	readyErr error
}

// Compile-time interface assertion
var _ interfaces.EmbeddingService = (*Service)(nil)

// NewService creates a new embedding service
func NewService(cfg *common.EmbeddingConfig, logger arbor.ILogger) *Service {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		url:       strings.TrimRight(cfg.URL, "/"),
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
		mockMode:  cfg.MockMode,
	}
}

// Dimension returns the fixed vector dimension of the active model.
func (s *Service) Dimension() int {
	return s.dimension
}

// Embed generates a unit-normalized embedding for a single text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	text = prepareText(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", models.ErrEmbedding)
	}

	if s.mockMode {
		return s.generateMockEmbedding(text), nil
	}

	if err := s.ensureReady(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}

	start := time.Now()
	embedding, err := s.embedOnce(ctx, text)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Embedding generation failed")
		return nil, fmt.Errorf("%w: %v", models.ErrEmbedding, err)
	}

	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: server returned dimension %d, expected %d", models.ErrEmbedding, len(embedding), s.dimension)
	}

	normalize(embedding)

	s.logger.Debug().
		Int("text_length", len(text)).
		Int("embedding_dim", len(embedding)).
		Dur("duration", time.Since(start)).
		Msg("Generated embedding")

	return embedding, nil
}

// EmbedBatch generates embeddings for multiple texts in input order.
// Equivalent to mapping Embed over the batch; any failure aborts the
// whole batch so no partial result is ever returned.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed at index %d: %w", i, err)
		}
		vectors[i] = vector
	}

	return vectors, nil
}

// IsAvailable reports whether the embedding backend is reachable.
func (s *Service) IsAvailable(ctx context.Context) bool {
	if s.mockMode {
		return true
	}
	return s.ensureReady(ctx) == nil
}

// ensureReady probes the embedding server's health endpoint once.
func (s *Service) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return s.readyErr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// Leave ready unset so a later caller can retry the probe.
		return fmt.Errorf("embedding server unreachable at %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server health check returned status %d", resp.StatusCode)
	}

	s.ready = true
	s.readyErr = nil
	s.logger.Info().
		Str("url", s.url).
		Int("dimension", s.dimension).
		Msg("Embedding server ready")

	return nil
}

// embedOnce posts one text to the embedding server and parses the
// response, tolerating the known llama-server response shapes.
func (s *Service) embedOnce(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{Content: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/embedding", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Try parsing as object first: {"embedding": [...]}
	var objResponse embeddingResponse
	if err := json.Unmarshal(bodyBytes, &objResponse); err == nil && len(objResponse.Embedding) > 0 {
		return objResponse.Embedding, nil
	}

	// Try parsing as array directly: [...]
	var flat []float32
	if err := json.Unmarshal(bodyBytes, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	// Try parsing as batch response: [{"index":0,"embedding":[[...]]}]
	var batchResponse []batchEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &batchResponse); err == nil && len(batchResponse) > 0 &&
		len(batchResponse[0].Embedding) > 0 && len(batchResponse[0].Embedding[0]) > 0 {
		return batchResponse[0].Embedding[0], nil
	}

	return nil, fmt.Errorf("failed to parse embedding response in any known format")
}

// prepareText trims whitespace and truncates to the character limit,
// cutting on a rune boundary so multi-byte text stays valid UTF-8.
func prepareText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) <= maxEmbedChars {
		return text
	}
	runes := 0
	for i := range text {
		if runes == maxEmbedChars {
			return text[:i]
		}
		runes++
	}
	return text
}

// normalize scales a vector to unit L2 length in place.
func normalize(vector []float32) {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
}

// generateMockEmbedding creates a deterministic normalized vector for
// testing without a running embedding server.
func (s *Service) generateMockEmbedding(text string) []float32 {
	embedding := make([]float32, s.dimension)
	seed := 0
	for _, c := range text {
		seed += int(c)
	}

	for i := range embedding {
		embedding[i] = float32((seed+i)%100) / 100.0
	}

	normalize(embedding)
	return embedding
}
