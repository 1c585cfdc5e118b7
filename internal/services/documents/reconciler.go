package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/interfaces"
)

// Reconciler sweeps orphaned vectors out of the index. Orphans appear
// when an ingestion dies between the vector write and the metadata
// commit, or when a best-effort vector deletion fails.
type Reconciler struct {
	index   interfaces.VectorIndex
	storage interfaces.DocumentStorage
	config  *common.ReconcilerConfig
	cron    *cron.Cron
	logger  arbor.ILogger
	running bool
}

// NewReconciler creates a new orphan vector reconciler
func NewReconciler(index interfaces.VectorIndex, storage interfaces.DocumentStorage, config *common.ReconcilerConfig, logger arbor.ILogger) *Reconciler {
	return &Reconciler{
		index:   index,
		storage: storage,
		config:  config,
		cron:    cron.New(),
		logger:  logger,
	}
}

// Start schedules the reconciliation sweep. No-op when disabled.
func (r *Reconciler) Start() error {
	if !r.config.Enabled {
		r.logger.Debug().Msg("Orphan reconciler disabled")
		return nil
	}
	if r.running {
		return fmt.Errorf("reconciler already running")
	}

	schedule := r.config.Schedule
	if schedule == "" {
		schedule = "0 3 * * *"
	}

	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.Warn().Err(err).Msg("Orphan sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reconciler: %w", err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info().Str("schedule", schedule).Msg("Orphan reconciler started")
	return nil
}

// Stop halts the scheduled sweeps
func (r *Reconciler) Stop() {
	if r.running {
		r.cron.Stop()
		r.running = false
	}
}

// Sweep removes vectors whose document id has no metadata record. It
// visits every tenant known to the metadata store plus every tenant
// collection present in the index, so orphans survive even when a
// tenant's only ingestion died before its first metadata commit.
// Returns the number of orphaned documents cleared.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	tenants, err := r.storage.Tenants()
	if err != nil {
		return 0, fmt.Errorf("failed to list tenants: %w", err)
	}

	indexTenants, err := r.index.Tenants(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Index collection listing failed, sweeping metadata tenants only")
	} else {
		tenants = append(tenants, indexTenants...)
	}

	// Index keys are in collection form ("-" mapped to "_"); dedupe on
	// that form so a tenant is swept once.
	visited := make(map[string]bool)
	cleared := 0
	for _, companyID := range tenants {
		key := strings.ReplaceAll(companyID, "-", "_")
		if visited[key] {
			continue
		}
		visited[key] = true

		n, err := r.sweepTenant(ctx, companyID)
		if err != nil {
			r.logger.Warn().Err(err).
				Str("company_id", companyID).
				Msg("Tenant sweep failed, continuing")
			continue
		}
		cleared += n
	}

	if cleared > 0 {
		r.logger.Info().Int("orphans_cleared", cleared).Msg("Orphan sweep complete")
	}
	return cleared, nil
}

func (r *Reconciler) sweepTenant(ctx context.Context, companyID string) (int, error) {
	indexed, err := r.index.DocumentIDs(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if len(indexed) == 0 {
		return 0, nil
	}

	cleared := 0
	for _, id := range indexed {
		// Document ids are globally unique, so an existence check works
		// regardless of which tenant key reached this collection.
		known, err := r.storage.HasDocument(id)
		if err != nil {
			return cleared, err
		}
		if known {
			continue
		}
		if err := r.index.DeleteByDocument(ctx, companyID, id); err != nil {
			r.logger.Warn().Err(err).
				Str("company_id", companyID).
				Str("document_id", id).
				Msg("Failed to delete orphaned vectors")
			continue
		}
		r.logger.Info().
			Str("company_id", companyID).
			Str("document_id", id).
			Msg("Orphaned vectors deleted")
		cleared++
	}
	return cleared, nil
}
