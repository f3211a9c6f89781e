package repository

import (
	"context"
	"fmt"

	"catalog/consolidator/internal/config"
	"catalog/consolidator/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

const batchSize = 500

// RecordRepository upserts flattened rows as JSONB, one row per product id.
type RecordRepository interface {
	Name() string
	EnsureSchema(ctx context.Context) error
	Write(ctx context.Context, dataset *domain.Dataset) error
}

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type recordRepository struct {
	db    DB
	table string
}

func NewRecordRepository(db DB, table string) RecordRepository {
	return &recordRepository{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

func (r *recordRepository) Name() string {
	return config.SinkPostgres
}

func (r *recordRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		category_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		data JSONB NOT NULL
	)`, r.table)
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}
	return nil
}

func (r *recordRepository) Write(ctx context.Context, dataset *domain.Dataset) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (id, category_id, run_id, data)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id)
	DO UPDATE SET category_id = $2, run_id = $3, data = $4`, r.table)

	for start := 0; start < len(dataset.Rows); start += batchSize {
		end := min(start+batchSize, len(dataset.Rows))

		batch := &pgx.Batch{}
		for _, row := range dataset.Rows[start:end] {
			batch.Queue(query,
				fmt.Sprint(row.ID()),
				fmt.Sprint(row[domain.FieldCategoryID]),
				dataset.RunID,
				row,
			)
		}

		if err := r.sendBatch(ctx, batch, dataset.Rows[start:end]); err != nil {
			return err
		}
		log.Debugf("Saved records %d-%d to %s", start, end, r.table)
	}

	log.Infof("✅ Saved %d records to %s", len(dataset.Rows), r.table)
	return nil
}

func (r *recordRepository) sendBatch(ctx context.Context, batch *pgx.Batch, rows []domain.Record) error {
	results := r.db.SendBatch(ctx, batch)
	for _, row := range rows {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to save record %v: %w", row.ID(), err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	return nil
}
