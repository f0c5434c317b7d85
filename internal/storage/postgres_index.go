package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/pathforge/api/internal/model"
)

// PostgresIndex stores index records in a single table, one row per job
type PostgresIndex struct {
	db     *sql.DB
	schema setupOnce
}

func NewPostgresIndex(dsn string) (*PostgresIndex, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &PostgresIndex{db: db}, nil
}

func (p *PostgresIndex) ensureSchema(ctx context.Context) error {
	return p.schema.Do(ctx, func(ctx context.Context) error {
		_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS job_index (
	job_id             TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	created_at         TEXT NOT NULL,
	updated_at         TEXT NOT NULL,
	point_count        INTEGER NOT NULL DEFAULT 0,
	robot_model        TEXT NOT NULL DEFAULT '',
	source_id          TEXT NOT NULL DEFAULT '',
	raw_key            TEXT NOT NULL DEFAULT '',
	path_key           TEXT NOT NULL DEFAULT '',
	karel_key          TEXT NOT NULL DEFAULT '',
	krl_key            TEXT NOT NULL DEFAULT '',
	rapid_key          TEXT NOT NULL DEFAULT '',
	karel_refined_key  TEXT NOT NULL DEFAULT '',
	krl_refined_key    TEXT NOT NULL DEFAULT '',
	rapid_refined_key  TEXT NOT NULL DEFAULT ''
)`)
		return err
	})
}

func (p *PostgresIndex) Put(ctx context.Context, rec model.IndexRecord) error {
	if err := checkKey(rec.JobID); err != nil {
		return err
	}
	if err := p.ensureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	_, err := p.db.ExecContext(ctx, `
INSERT INTO job_index (
	job_id, status, created_at, updated_at, point_count, robot_model, source_id,
	raw_key, path_key, karel_key, krl_key, rapid_key,
	karel_refined_key, krl_refined_key, rapid_refined_key
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
ON CONFLICT (job_id) DO NOTHING`,
		rec.JobID, string(rec.Status), rec.CreatedAt, rec.UpdatedAt, rec.PointCount, rec.RobotModel, rec.SourceID,
		rec.RawKey, rec.PathKey, rec.KarelKey, rec.KRLKey, rec.RapidKey,
		rec.KarelRefinedKey, rec.KRLRefinedKey, rec.RapidRefinedKey,
	)
	if err != nil {
		return fmt.Errorf("insert index record: %w", err)
	}
	return nil
}

func (p *PostgresIndex) List(ctx context.Context) ([]model.IndexRecord, error) {
	if err := p.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT job_id, status, created_at, updated_at, point_count, robot_model, source_id,
	raw_key, path_key, karel_key, krl_key, rapid_key,
	karel_refined_key, krl_refined_key, rapid_refined_key
FROM job_index`)
	if err != nil {
		return nil, fmt.Errorf("scan index: %w", err)
	}
	defer rows.Close()

	var out []model.IndexRecord
	for rows.Next() {
		var rec model.IndexRecord
		var status string
		if err := rows.Scan(
			&rec.JobID, &status, &rec.CreatedAt, &rec.UpdatedAt, &rec.PointCount, &rec.RobotModel, &rec.SourceID,
			&rec.RawKey, &rec.PathKey, &rec.KarelKey, &rec.KRLKey, &rec.RapidKey,
			&rec.KarelRefinedKey, &rec.KRLRefinedKey, &rec.RapidRefinedKey,
		); err != nil {
			return nil, err
		}
		rec.Status = model.JobStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool
func (p *PostgresIndex) Close() error {
	return p.db.Close()
}
