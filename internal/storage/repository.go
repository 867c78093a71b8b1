package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"fiado/internal/core"
	"fiado/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite takes one writer at a time; a single connection keeps appends ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements store.Appender
func (r *SQLiteRepository) Append(ctx context.Context, rec core.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	params := CreateRecordParams{
		ID:     rec.ID,
		Date:   rec.Date.String(),
		Kind:   string(rec.Kind),
		Sender: rec.Sender,
	}
	if rec.Amount.Valid {
		params.Amount = sql.NullString{String: rec.Amount.Decimal.String(), Valid: true}
	}
	if rec.Category != nil {
		params.Category = sql.NullString{String: *rec.Category, Valid: true}
	}

	seq, err := r.queries.CreateRecord(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: create record: %v", store.ErrUnavailable, err)
	}

	slog.DebugContext(ctx, "Record saved to SQLite",
		"seq", seq,
		"record_id", rec.ID,
		"kind", rec.Kind)

	return nil
}

// All implements store.Reader
func (r *SQLiteRepository) All(ctx context.Context) ([]core.Record, error) {
	rows, err := r.queries.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list records: %v", store.ErrUnavailable, err)
	}

	records := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, fmt.Errorf("record seq %d: %w", row.Seq, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountRecords(ctx)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func rowToRecord(row RecordRow) (core.Record, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Record{}, err
	}
	rec := core.Record{
		ID:     row.ID,
		Date:   date,
		Kind:   core.ParseKind(row.Kind),
		Sender: row.Sender,
	}
	if row.Amount.Valid {
		d, err := decimal.NewFromString(row.Amount.String)
		if err != nil {
			return core.Record{}, fmt.Errorf("parse amount %q: %w", row.Amount.String, err)
		}
		rec.Amount = decimal.NewNullDecimal(d)
	}
	if row.Category.Valid {
		c := row.Category.String
		rec.Category = &c
	}
	return rec, nil
}
