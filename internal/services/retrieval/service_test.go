package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/models"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{1, 0, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := s.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return 3 }

func (s *stubEmbedder) IsAvailable(ctx context.Context) bool { return s.err == nil }

type stubIndex struct {
	hits      []models.ScoredPoint
	searchErr error
	ensureErr error
	gotLimit  int
	gotThresh float32
}

func (s *stubIndex) EnsureCollection(ctx context.Context, companyID string) error {
	return s.ensureErr
}

func (s *stubIndex) Upsert(ctx context.Context, companyID string, points []models.VectorPoint) error {
	return nil
}

func (s *stubIndex) Search(ctx context.Context, companyID string, vector []float32, limit int, scoreThreshold float32) ([]models.ScoredPoint, error) {
	s.gotLimit = limit
	s.gotThresh = scoreThreshold
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.hits, nil
}

func (s *stubIndex) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	return nil
}

func (s *stubIndex) DeleteCollection(ctx context.Context, companyID string) error { return nil }

func (s *stubIndex) DocumentIDs(ctx context.Context, companyID string) ([]string, error) {
	return nil, nil
}

func (s *stubIndex) Tenants(ctx context.Context) ([]string, error) { return nil, nil }

func hit(docName, text string, score float32) models.ScoredPoint {
	return models.ScoredPoint{
		Score: score,
		Payload: models.PointPayload{
			DocumentID:   "doc_" + docName,
			DocumentName: docName,
			Text:         text,
			CompanyID:    "acme",
		},
	}
}

func newService(index *stubIndex, embedder *stubEmbedder) *Service {
	return NewService(embedder, index, &common.RetrievalConfig{TopK: 5, ScoreThreshold: 0.3}, arbor.NewLogger())
}

func TestRetrieve_AssemblesContext(t *testing.T) {
	index := &stubIndex{hits: []models.ScoredPoint{
		hit("leave.pdf", "14 days of annual leave", 0.92),
		hit("leave.pdf", "carry-over rules apply", 0.78),
		hit("travel.docx", "per diem allowances", 0.55),
	}}
	svc := newService(index, &stubEmbedder{})

	result, err := svc.Retrieve(context.Background(), "acme", "how much annual leave do I get")
	require.NoError(t, err)

	assert.Equal(t, "14 days of annual leave\n\n---\n\ncarry-over rules apply\n\n---\n\nper diem allowances", result.Context)
	assert.Equal(t, 5, index.gotLimit)
	assert.InDelta(t, 0.3, float64(index.gotThresh), 1e-6)

	// One source per document, best score wins, order preserved
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "leave.pdf", result.Sources[0].Name)
	assert.InDelta(t, 92.0, result.Sources[0].Relevance, 0.01)
	assert.Equal(t, "travel.docx", result.Sources[1].Name)
	assert.InDelta(t, 55.0, result.Sources[1].Relevance, 0.01)
}

func TestRetrieve_RelevanceRounding(t *testing.T) {
	index := &stubIndex{hits: []models.ScoredPoint{
		hit("policy.pdf", "text", 0.8576),
	}}
	svc := newService(index, &stubEmbedder{})

	result, err := svc.Retrieve(context.Background(), "acme", "query")
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.InDelta(t, 85.8, result.Sources[0].Relevance, 1e-9)
}

func TestRetrieve_NoHits(t *testing.T) {
	svc := newService(&stubIndex{}, &stubEmbedder{})

	result, err := svc.Retrieve(context.Background(), "acme", "unrelated question")
	require.NoError(t, err)
	assert.Empty(t, result.Context)
	assert.Empty(t, result.Sources)
}

func TestRetrieve_SearchFailureDegrades(t *testing.T) {
	index := &stubIndex{searchErr: fmt.Errorf("qdrant unreachable")}
	svc := newService(index, &stubEmbedder{})

	result, err := svc.Retrieve(context.Background(), "acme", "query")
	require.NoError(t, err, "search failures must not break chat")
	assert.Empty(t, result.Context)
	assert.Empty(t, result.Sources)
}

func TestRetrieve_EnsureFailureDegrades(t *testing.T) {
	index := &stubIndex{ensureErr: fmt.Errorf("collection check failed")}
	svc := newService(index, &stubEmbedder{})

	result, err := svc.Retrieve(context.Background(), "acme", "query")
	require.NoError(t, err)
	assert.Empty(t, result.Context)
}

func TestRetrieve_EmbedFailurePropagates(t *testing.T) {
	embedder := &stubEmbedder{err: fmt.Errorf("%w: server down", models.ErrEmbedding)}
	svc := newService(&stubIndex{}, embedder)

	_, err := svc.Retrieve(context.Background(), "acme", "query")
	assert.ErrorIs(t, err, models.ErrEmbedding)
}
