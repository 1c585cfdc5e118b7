package interfaces

import (
	"context"

	"github.com/luminahr/knowledge/internal/models"
)

// VectorIndex manages per-tenant vector collections in an external vector
// database. All vectors in a tenant's collection share one fixed dimension
// and cosine similarity.
type VectorIndex interface {
	// EnsureCollection creates the tenant's collection if absent. If an
	// existing collection's dimension differs from the active embedding
	// dimension it is destroyed and recreated empty. Idempotent and safe
	// to call before every ingestion or query.
	EnsureCollection(ctx context.Context, companyID string) error

	// Upsert durably writes a batch of points. It does not return success
	// until the backing store confirms the write.
	Upsert(ctx context.Context, companyID string, points []models.VectorPoint) error

	// Search returns up to limit points with similarity >= scoreThreshold,
	// ordered by descending score.
	Search(ctx context.Context, companyID string, vector []float32, limit int, scoreThreshold float32) ([]models.ScoredPoint, error)

	// DeleteByDocument removes all points belonging to a document within
	// the tenant's collection.
	DeleteByDocument(ctx context.Context, companyID, documentID string) error

	// DeleteCollection drops the tenant's collection entirely.
	DeleteCollection(ctx context.Context, companyID string) error

	// DocumentIDs returns the distinct document ids present in the
	// tenant's collection. Used by the orphan reconciler.
	DocumentIDs(ctx context.Context, companyID string) ([]string, error)

	// Tenants returns a tenant key for every collection present in the
	// index, derived from the collection names. Keys are in collection
	// form (any "-" in the original company id appears as "_") and
	// address the same collection when passed back into other methods.
	Tenants(ctx context.Context) ([]string, error)
}
