package retrieval

import (
	"context"
	"math"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// chunkSeparator joins retrieved chunks into one context block.
const chunkSeparator = "\n\n---\n\n"

// Service embeds a query, searches the tenant's collection and assembles
// the grounding context. Search failures degrade to an empty context so
// chat stays available when the vector index is down.
type Service struct {
	embeddings interfaces.EmbeddingService
	index      interfaces.VectorIndex
	config     *common.RetrievalConfig
	logger     arbor.ILogger
}

// NewService creates a new retrieval service
func NewService(embeddings interfaces.EmbeddingService, index interfaces.VectorIndex, config *common.RetrievalConfig, logger arbor.ILogger) *Service {
	return &Service{
		embeddings: embeddings,
		index:      index,
		config:     config,
		logger:     logger,
	}
}

// Retrieve returns the assembled context for a query. An empty context
// means nothing relevant is indexed; that is a valid result, not an error.
func (s *Service) Retrieve(ctx context.Context, companyID, query string) (*interfaces.RetrievalResult, error) {
	vector, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.index.EnsureCollection(ctx, companyID); err != nil {
		s.logger.Warn().Err(err).
			Str("company_id", companyID).
			Msg("Collection check failed, answering without documents")
		return &interfaces.RetrievalResult{}, nil
	}

	hits, err := s.index.Search(ctx, companyID, vector, s.config.TopK, s.config.ScoreThreshold)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("company_id", companyID).
			Msg("Vector search failed, answering without documents")
		return &interfaces.RetrievalResult{}, nil
	}
	if len(hits) == 0 {
		return &interfaces.RetrievalResult{}, nil
	}

	texts := make([]string, 0, len(hits))
	seen := make(map[string]bool)
	var sources []models.Source
	for _, hit := range hits {
		texts = append(texts, hit.Payload.Text)
		// First hit per document wins; hits arrive in descending score
		// order, so each source carries its best relevance.
		if name := hit.Payload.DocumentName; name != "" && !seen[name] {
			seen[name] = true
			sources = append(sources, models.Source{
				Name:      name,
				Relevance: roundRelevance(hit.Score),
			})
		}
	}

	s.logger.Debug().
		Str("company_id", companyID).
		Int("hits", len(hits)).
		Int("sources", len(sources)).
		Msg("Context assembled")

	return &interfaces.RetrievalResult{
		Context: strings.Join(texts, chunkSeparator),
		Sources: sources,
	}, nil
}

// roundRelevance converts a cosine score to a percentage with one
// decimal place.
func roundRelevance(score float32) float64 {
	return math.Round(float64(score)*1000) / 10
}

var _ interfaces.RetrievalService = (*Service)(nil)
