package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/millkeeper/internal/common"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/timex"
)

// Validate checks business rules. Load calls it.
func (c *Config) Validate() error {
	var errs []error

	if c.APIKey == "" || c.DatabaseURL == "" {
		errs = append(errs, errMissingRemote)
	}
	if c.Collection == "" {
		errs = append(errs, errors.New("collection must not be empty"))
	}
	if c.ArchiveDB == "" {
		errs = append(errs, errors.New("archive_db must not be empty"))
	}
	if c.HybridDays < 0 {
		errs = append(errs, fmt.Errorf("hybrid_days must be >= 0 (got %d)", c.HybridDays))
	}
	if c.RetentionDays < 1 {
		errs = append(errs, fmt.Errorf("retention_days must be >= 1 (got %d)", c.RetentionDays))
	}
	if c.EuroPerKg < 0 {
		errs = append(errs, fmt.Errorf("euro_per_kg must be >= 0 (got %v)", c.EuroPerKg))
	}
	if c.PollMs < 500 {
		errs = append(errs, fmt.Errorf("poll_ms must be >= 500 (got %d)", c.PollMs))
	}
	if c.MirrorIntervalMinutes < 1 {
		errs = append(errs, fmt.Errorf("mirror_interval_minutes must be >= 1 (got %d)", c.MirrorIntervalMinutes))
	}
	if c.SyncTimeoutSeconds < 1 || c.RequestTimeoutSeconds < 1 {
		errs = append(errs, errors.New("timeouts must be >= 1 second"))
	}
	if _, err := timex.LoadCalendar(c.Timezone); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.New(c.Log.Format, c.Log.Level, io.Discard); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrValidation, errors.Join(errs...))
	}
	return nil
}
