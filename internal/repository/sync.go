package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
)

// SyncResult reports one mirror and cleanup run.
type SyncResult struct {
	Mirrored int `json:"mirrored"`
	Deleted  int `json:"deleted"`
}

// Cutoff returns the retention cutoff for today in epoch milliseconds:
// the last millisecond of today minus RetentionDays.
func (r *HybridRepository) Cutoff() int64 {
	return r.cal.EndOfDayMs(r.cal.Today().AddDays(-r.retentionDays))
}

// staleIDs selects records eligible for remote deletion. Records without
// a timestamp or id are never selected.
func staleIDs(records []models.Record, cutoff int64) []string {
	var ids []string
	for _, rec := range records {
		if rec.ID == "" || !rec.HasTimestamp() {
			continue
		}
		if rec.EventTimeMs <= cutoff {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

// MirrorAndCleanup copies every remote record into the archive and then
// deletes remote records older than the retention cutoff. Only one run may
// be active at a time; a concurrent call returns ErrSyncInProgress.
//
// The archive is never pruned here. When the upsert fails no remote
// delete is issued.
func (r *HybridRepository) MirrorAndCleanup(ctx context.Context) (SyncResult, error) {
	if !r.syncing.TryAcquire(1) {
		syncRunsTotal.WithLabelValues("busy").Inc()
		return SyncResult{}, ErrSyncInProgress
	}
	defer r.syncing.Release(1)

	start := time.Now()
	logger := r.logger.With("run_id", uuid.NewString())

	res, err := r.mirrorAndCleanup(ctx, logger)
	syncDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		syncRunsTotal.WithLabelValues("error").Inc()
		logger.Error(ctx, "mirror and cleanup failed", "error", err)
		return res, err
	}

	syncRunsTotal.WithLabelValues("ok").Inc()
	syncRecordsTotal.WithLabelValues("mirrored").Add(float64(res.Mirrored))
	syncRecordsTotal.WithLabelValues("deleted").Add(float64(res.Deleted))
	logger.Info(ctx, "mirror and cleanup done",
		"mirrored", res.Mirrored,
		"deleted", res.Deleted,
		"duration", time.Since(start).String(),
	)
	return res, nil
}

func (r *HybridRepository) mirrorAndCleanup(ctx context.Context, logger logging.Logger) (SyncResult, error) {
	records, err := r.remote.FetchAll(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("mirror fetch: %w", err)
	}

	if _, err := r.archive.UpsertMany(ctx, records); err != nil {
		return SyncResult{}, fmt.Errorf("mirror upsert: %w", err)
	}
	res := SyncResult{Mirrored: len(records)}

	cutoff := r.Cutoff()
	stale := staleIDs(records, cutoff)
	logger.Debug(ctx, "retention cutoff computed", "cutoff_ms", cutoff, "stale", len(stale))
	if len(stale) == 0 {
		return res, nil
	}

	if err := r.remote.DeleteMany(ctx, stale); err != nil {
		return res, fmt.Errorf("cleanup delete: %w", err)
	}
	res.Deleted = len(stale)
	return res, nil
}
