// Package store persists terminal validation results for audit. It is
// optional: validation behaves identically with or without a database.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"filadb-validator/internal/config"
	"filadb-validator/internal/validator"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolCfg.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// Bootstrap creates the audit table if it does not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	sql := `CREATE TABLE IF NOT EXISTS _validation_runs (
		id            TEXT PRIMARY KEY,
		is_valid      BOOLEAN NOT NULL,
		error_count   INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		findings      JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	if _, err := s.Pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("create _validation_runs: %w", err)
	}
	return nil
}

// RecordResult inserts one terminal result. Reruns under the same job
// ID are not expected; conflicts are treated as an error.
func (s *Store) RecordResult(ctx context.Context, runID string, result *validator.ValidationResult) error {
	findings, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}

	sql := `INSERT INTO _validation_runs (id, is_valid, error_count, warning_count, findings)
	        VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.Pool.Exec(ctx, sql, runID, result.IsValid, result.ErrorCount, result.WarningCount, findings); err != nil {
		return fmt.Errorf("insert _validation_runs: %w", err)
	}
	return nil
}

// RecentRuns returns the newest audit rows, for operator inspection.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT id, is_valid, error_count, warning_count, created_at
		 FROM _validation_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query _validation_runs: %w", err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var (
			id                 string
			isValid            bool
			errCount, warCount int
			createdAt          any
		)
		if err := rows.Scan(&id, &isValid, &errCount, &warCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan _validation_runs: %w", err)
		}
		out = append(out, map[string]any{
			"id":            id,
			"is_valid":      isValid,
			"error_count":   errCount,
			"warning_count": warCount,
			"created_at":    createdAt,
		})
	}
	return out, rows.Err()
}
