// -----------------------------------------------------------------------
// Vector Index - Qdrant REST adapter for per-tenant chunk collections
// One collection per tenant, fixed dimension, cosine similarity
// -----------------------------------------------------------------------

package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// Service is a minimal REST client to Qdrant. It assumes cosine distance
// and recreates a tenant's collection when its dimension no longer
// matches the active embedding model.
type Service struct {
	url              string
	apiKey           string
	collectionPrefix string
	dimension        int
	client           *http.Client
	logger           arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.VectorIndex = (*Service)(nil)

// NewService creates a new Qdrant vector index adapter
func NewService(cfg *common.QdrantConfig, dimension int, logger arbor.ILogger) *Service {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Service{
		url:              strings.TrimRight(cfg.URL, "/"),
		apiKey:           cfg.APIKey,
		collectionPrefix: cfg.CollectionPrefix,
		dimension:        dimension,
		client:           &http.Client{Timeout: timeout},
		logger:           logger,
	}
}

// CollectionName derives the tenant's deterministic collection name.
func (s *Service) CollectionName(companyID string) string {
	return s.collectionPrefix + strings.ReplaceAll(companyID, "-", "_")
}

type collectionInfoResponse struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size int `json:"size"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the tenant's collection if absent. An existing
// collection with a different dimension is destroyed and recreated empty;
// previously indexed vectors are lost until their documents are
// re-uploaded. Idempotent, and tolerant of concurrent creators.
func (s *Service) EnsureCollection(ctx context.Context, companyID string) error {
	name := s.CollectionName(companyID)

	info, err := s.getCollection(ctx, name)
	if err == nil {
		size := info.Result.Config.Params.Vectors.Size
		if size == s.dimension {
			return nil
		}

		s.logger.Warn().
			Str("collection", name).
			Int("existing_dim", size).
			Int("active_dim", s.dimension).
			Msg("Collection dimension mismatch, recreating")

		if err := s.deleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete mismatched collection %s: %w", name, err)
		}
	}

	if err := s.createCollection(ctx, name); err != nil {
		// Concurrent ingestions race on creation; a loser whose
		// collection now exists with the right dimension has converged.
		if info, getErr := s.getCollection(ctx, name); getErr == nil &&
			info.Result.Config.Params.Vectors.Size == s.dimension {
			return nil
		}
		return err
	}

	s.logger.Info().
		Str("collection", name).
		Int("dimension", s.dimension).
		Msg("Created vector collection")

	return nil
}

func (s *Service) getCollection(ctx context.Context, name string) (*collectionInfoResponse, error) {
	var info collectionInfoResponse
	if err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/collections/%s", s.url, name), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *Service) createCollection(ctx context.Context, name string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.dimension,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, name), body, nil)
}

func (s *Service) deleteCollection(ctx context.Context, name string) error {
	return s.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", s.url, name), nil, nil)
}

// DeleteCollection drops the tenant's collection entirely.
func (s *Service) DeleteCollection(ctx context.Context, companyID string) error {
	return s.deleteCollection(ctx, s.CollectionName(companyID))
}

// Upsert durably writes a batch of points. wait=true makes Qdrant
// confirm persistence before responding; the ingestion pipeline relies
// on that to know metadata is safe to commit afterwards.
func (s *Service) Upsert(ctx context.Context, companyID string, points []models.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	name := s.CollectionName(companyID)
	body := map[string]any{"points": points}

	if err := s.doJSON(ctx, http.MethodPut, fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, name), body, nil); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}

	s.logger.Debug().
		Str("collection", name).
		Int("points", len(points)).
		Msg("Upserted vector points")

	return nil
}

type searchResponse struct {
	Result []struct {
		Score   float32             `json:"score"`
		Payload models.PointPayload `json:"payload"`
	} `json:"result"`
}

// Search returns up to limit points with similarity >= scoreThreshold,
// ordered by descending score.
func (s *Service) Search(ctx context.Context, companyID string, vector []float32, limit int, scoreThreshold float32) ([]models.ScoredPoint, error) {
	if limit <= 0 {
		limit = 5
	}

	name := s.CollectionName(companyID)
	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": scoreThreshold,
		"with_payload":    true,
	}

	var resp searchResponse
	if err := s.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/search", s.url, name), body, &resp); err != nil {
		return nil, err
	}

	results := make([]models.ScoredPoint, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, models.ScoredPoint{Score: r.Score, Payload: r.Payload})
	}

	return results, nil
}

// DeleteByDocument removes all points whose payload document id matches,
// within the tenant's collection only.
func (s *Service) DeleteByDocument(ctx context.Context, companyID, documentID string) error {
	name := s.CollectionName(companyID)
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "document_id",
					"match": map[string]any{"value": documentID},
				},
			},
		},
	}

	if err := s.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, name), body, nil); err != nil {
		return err
	}

	s.logger.Debug().
		Str("collection", name).
		Str("document_id", documentID).
		Msg("Deleted document points")

	return nil
}

type scrollResponse struct {
	Result struct {
		Points []struct {
			Payload models.PointPayload `json:"payload"`
		} `json:"points"`
		NextPageOffset any `json:"next_page_offset"`
	} `json:"result"`
}

// DocumentIDs returns the distinct document ids present in the tenant's
// collection by scrolling all points. Used by the orphan reconciler.
func (s *Service) DocumentIDs(ctx context.Context, companyID string) ([]string, error) {
	name := s.CollectionName(companyID)

	seen := make(map[string]bool)
	var ids []string
	var offset any

	for {
		body := map[string]any{
			"limit":        256,
			"with_payload": true,
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}

		var resp scrollResponse
		if err := s.doJSON(ctx, http.MethodPost, fmt.Sprintf("%s/collections/%s/points/scroll", s.url, name), body, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			if id := p.Payload.DocumentID; id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}

		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	return ids, nil
}

type collectionsListResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// Tenants lists every collection carrying the tenant prefix and returns
// the tenant keys, sorted. Keys are in collection form and round-trip
// through CollectionName.
func (s *Service) Tenants(ctx context.Context) ([]string, error) {
	var resp collectionsListResponse
	if err := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("%s/collections", s.url), nil, &resp); err != nil {
		return nil, err
	}

	var tenants []string
	for _, c := range resp.Result.Collections {
		if strings.HasPrefix(c.Name, s.collectionPrefix) {
			tenants = append(tenants, strings.TrimPrefix(c.Name, s.collectionPrefix))
		}
	}
	sort.Strings(tenants)
	return tenants, nil
}

// doJSON issues one JSON request and decodes the response when out is
// non-nil. Non-2xx statuses are returned as errors with the body text.
func (s *Service) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s returned status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}

	return nil
}
