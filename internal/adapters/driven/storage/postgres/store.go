// Package postgres stores question history in PostgreSQL through the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/postgres/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Connection pool settings.
const (
	MaxOpenConns    = 25
	MaxIdleConns    = 5
	ConnMaxLifetime = 5 * time.Minute
	PingTimeout     = 10 * time.Second
)

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// Store is a PostgreSQL-backed question history.
type Store struct {
	db *sql.DB
}

// NewStore connects to dsn, verifies the connection and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty postgres DSN", domain.ErrInvalidInput)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)
	db.SetConnMaxLifetime(ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	data, err := migrations.FS.ReadFile("001_history.sql")
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one question, replacing any row with the same ID.
func (s *Store) Record(ctx context.Context, rec domain.HistoryRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: history record without ID", domain.ErrInvalidInput)
	}
	sources := rec.Sources
	if sources == nil {
		sources = []string{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshal sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, question, answer, outcome, reason, sources, asked_at, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			outcome = EXCLUDED.outcome,
			reason = EXCLUDED.reason,
			sources = EXCLUDED.sources,
			asked_at = EXCLUDED.asked_at,
			duration_ms = EXCLUDED.duration_ms`,
		rec.ID, rec.Question, rec.Answer, string(rec.Outcome), rec.Reason,
		string(sourcesJSON), rec.AskedAt.UTC(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	query := `
		SELECT id, question, answer, outcome, reason, sources, asked_at, duration_ms
		FROM history ORDER BY asked_at DESC, id`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []domain.HistoryRecord
	for rows.Next() {
		var (
			rec         domain.HistoryRecord
			outcome     string
			sourcesJSON []byte
			durationMs  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Question, &rec.Answer, &outcome, &rec.Reason,
			&sourcesJSON, &rec.AskedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(sourcesJSON, &rec.Sources); err != nil {
			return nil, fmt.Errorf("unmarshal sources: %w", err)
		}
		rec.Outcome = domain.Outcome(outcome)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return records, nil
}
