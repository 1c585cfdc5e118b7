package interfaces

import (
	"context"

	"github.com/luminahr/knowledge/internal/models"
)

// RetrievalResult is the assembled grounding context for one query.
// Context is empty when no indexed chunk passed the score threshold;
// that is a valid outcome, not an error.
type RetrievalResult struct {
	Context string
	Sources []models.Source
}

// RetrievalService embeds a query, searches the tenant's vector
// collection and assembles a bounded textual context.
type RetrievalService interface {
	Retrieve(ctx context.Context, companyID, query string) (*RetrievalResult, error)
}
