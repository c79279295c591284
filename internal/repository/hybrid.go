// Package repository routes reads and writes between the remote collection
// (recent days) and the local archive (history), and runs the mirror and
// retention job that keeps the two consistent.
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/semaphore"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

// RemoteStore is the networked collection of hot records.
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]models.Record, error)
	UpdatePayment(ctx context.Context, id, method string) error
	DeleteMany(ctx context.Context, ids []string) error
	DeleteOne(ctx context.Context, id string) error
}

// Archive is the durable local store.
type Archive interface {
	FetchDay(ctx context.Context, d timex.Date) ([]models.Record, error)
	UpsertMany(ctx context.Context, records []models.Record) (int64, error)
	UpdatePayment(ctx context.Context, id, method string) error
	DeleteOne(ctx context.Context, id string) error
}

// ErrSyncInProgress is returned by MirrorAndCleanup when another run has
// not finished yet.
var ErrSyncInProgress = errors.New("sync already in progress")

// Source names the store that served a day.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Options configures the windows. HybridDays below 0 and RetentionDays
// below 1 are clamped.
type Options struct {
	HybridDays    int
	RetentionDays int
}

// HybridRepository is the router and sync engine.
type HybridRepository struct {
	remote  RemoteStore
	archive Archive
	cal     *timex.Calendar
	logger  logging.Logger

	hybridDays    int
	retentionDays int

	syncing *semaphore.Weighted
}

// New builds a HybridRepository. It owns the given store handles.
func New(remote RemoteStore, archive Archive, cal *timex.Calendar, opts Options, logger logging.Logger) *HybridRepository {
	return &HybridRepository{
		remote:        remote,
		archive:       archive,
		cal:           cal,
		logger:        logger.With("component", "hybrid_repository"),
		hybridDays:    max(0, opts.HybridDays),
		retentionDays: max(1, opts.RetentionDays),
		syncing:       semaphore.NewWeighted(1),
	}
}

// HybridDays returns the effective hot window size.
func (r *HybridRepository) HybridDays() int { return r.hybridDays }

// RetentionDays returns the effective retention horizon.
func (r *HybridRepository) RetentionDays() int { return r.retentionDays }

// SourceFor tells which store is authoritative for d today.
func (r *HybridRepository) SourceFor(d timex.Date) Source {
	if timex.DaysBetween(d, r.cal.Today()) <= r.hybridDays {
		return SourceRemote
	}
	return SourceLocal
}

// FetchDay returns the records of day d in ascending event time together
// with the store that served them.
func (r *HybridRepository) FetchDay(ctx context.Context, d timex.Date) ([]models.Record, Source, error) {
	src := r.SourceFor(d)
	fetchDayTotal.WithLabelValues(string(src)).Inc()

	if src == SourceLocal {
		records, err := r.archive.FetchDay(ctx, d)
		if err != nil {
			return nil, src, fmt.Errorf("archive fetch %s: %w", d, err)
		}
		return records, src, nil
	}

	all, err := r.remote.FetchAll(ctx)
	if err != nil {
		return nil, src, fmt.Errorf("remote fetch %s: %w", d, err)
	}

	out := make([]models.Record, 0, len(all))
	for _, rec := range all {
		if !r.cal.InDay(rec.EventTimeMs, d) {
			continue
		}
		rec.Origin = models.OriginRemote
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTimeMs < out[j].EventTimeMs
	})
	return out, src, nil
}

func validateTarget(id string, origin models.Origin) error {
	if id == "" {
		return fmt.Errorf("%w: missing record id", common.ErrValidation)
	}
	if origin != models.OriginRemote && origin != models.OriginLocal {
		return fmt.Errorf("%w: unknown origin %q", common.ErrValidation, origin)
	}
	return nil
}

// UpdatePayment writes method to the store the record came from.
func (r *HybridRepository) UpdatePayment(ctx context.Context, id, method string, origin models.Origin) error {
	if err := validateTarget(id, origin); err != nil {
		return err
	}
	if origin == models.OriginRemote {
		return r.remote.UpdatePayment(ctx, id, method)
	}
	return r.archive.UpdatePayment(ctx, id, method)
}

// DeleteRecord removes the record from the store it came from. It never
// touches the other store.
func (r *HybridRepository) DeleteRecord(ctx context.Context, id string, origin models.Origin) error {
	if err := validateTarget(id, origin); err != nil {
		return err
	}
	if origin == models.OriginRemote {
		return r.remote.DeleteOne(ctx, id)
	}
	return r.archive.DeleteOne(ctx, id)
}
