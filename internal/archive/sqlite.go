package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/millkeeper/internal/archive/migrations"
	"github.com/dmitrijs2005/millkeeper/internal/dbx"
	"github.com/dmitrijs2005/millkeeper/internal/logging"
	"github.com/dmitrijs2005/millkeeper/internal/models"
	"github.com/dmitrijs2005/millkeeper/internal/numx"
	"github.com/dmitrijs2005/millkeeper/internal/timex"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

const (
	table = "tickets"

	// upsertChunk keeps multi-row statements well under SQLite's bound
	// parameter limit.
	upsertChunk = 500
)

var columns = []string{"id", "name", "weight", "payment", "event_time"}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ErrNotFound is returned by GetByID for an absent id.
var ErrNotFound = errors.New("archive record not found")

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

// RunMigrations applies the embedded schema migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate archive: %w", err)
	}
	return nil
}

// SQLiteArchive implements the local archive on an SQLite database.
type SQLiteArchive struct {
	db     *sql.DB
	cal    *timex.Calendar
	logger logging.Logger
}

// Open opens (creating if needed) the archive at dsn and ensures the schema.
func Open(ctx context.Context, dsn string, cal *timex.Calendar, logger logging.Logger) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %q: %w", dsn, err)
	}
	// One connection serializes statements; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open archive %q: %w", dsn, err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, cal, logger), nil
}

// New binds an archive to an already migrated database handle.
func New(db *sql.DB, cal *timex.Calendar, logger logging.Logger) *SQLiteArchive {
	return &SQLiteArchive{db: db, cal: cal, logger: logger.With("component", "archive")}
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var result []models.Record
	for rows.Next() {
		var (
			id      string
			name    sql.NullString
			weight  sql.NullFloat64
			payment sql.NullString
			evt     sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &weight, &payment, &evt); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		result = append(result, models.Record{
			ID:            id,
			Name:          name.String,
			WeightKg:      numx.NonNegative(weight.Float64),
			PaymentMethod: payment.String,
			EventTimeMs:   evt.Int64,
			Origin:        models.OriginLocal,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}
	return result, nil
}

// FetchDay returns the tickets of day d in ascending event time, tagged
// OriginLocal. The range is inclusive on both ends.
func (a *SQLiteArchive) FetchDay(ctx context.Context, d timex.Date) ([]models.Record, error) {
	start, end := a.cal.Bounds(d)

	query, args, err := psql.Select(columns...).
		From(table).
		Where(sq.And{sq.GtOrEq{"event_time": start}, sq.LtOrEq{"event_time": end}}).
		OrderBy("event_time ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build day query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select tickets: %w", err)
	}
	defer rows.Close()

	result, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []models.Record{}
	}
	return result, nil
}

// GetByID returns one archived ticket.
func (a *SQLiteArchive) GetByID(ctx context.Context, id string) (*models.Record, error) {
	query, args, err := psql.Select(columns...).From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build ticket query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select ticket: %w", err)
	}
	defer rows.Close()

	result, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &result[0], nil
}

// UpsertMany inserts or replaces records keyed by id inside one transaction
// and returns the number of affected rows. Records without an id are skipped.
func (a *SQLiteArchive) UpsertMany(ctx context.Context, records []models.Record) (int64, error) {
	valid := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	var affected int64
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for lo := 0; lo < len(valid); lo += upsertChunk {
			hi := min(lo+upsertChunk, len(valid))

			ins := psql.Insert(table).Columns(columns...)
			for _, r := range valid[lo:hi] {
				ins = ins.Values(r.ID, r.Name, numx.NonNegative(r.WeightKg), r.PaymentMethod, r.EventTimeMs)
			}
			ins = ins.Suffix(`ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				weight = excluded.weight,
				payment = excluded.payment,
				event_time = excluded.event_time`)

			query, args, err := ins.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build upsert: %w", err)
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to upsert tickets: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			affected += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.logger.Debug(ctx, "upserted tickets", "rows", affected, "skipped", len(records)-len(valid))
	return affected, nil
}

// UpdatePayment sets the payment of one ticket. An absent id is a no-op.
func (a *SQLiteArchive) UpdatePayment(ctx context.Context, id, method string) error {
	query, args, err := psql.Update(table).Set("payment", method).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build payment update: %w", err)
	}
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	a.logAbsent(ctx, res, "update payment", id)
	return nil
}

// DeleteOne removes one ticket. An absent id is a no-op.
func (a *SQLiteArchive) DeleteOne(ctx context.Context, id string) error {
	query, args, err := psql.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	res, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	a.logAbsent(ctx, res, "delete", id)
	return nil
}

func (a *SQLiteArchive) logAbsent(ctx context.Context, res sql.Result, op, id string) {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		a.logger.Debug(ctx, "no archived ticket matched", "op", op, "id", id)
	}
}
