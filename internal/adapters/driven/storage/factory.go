// Package storage selects a question history backend from a DSN.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// DSNDefaultSQLite selects the SQLite database in the default data directory.
const DSNDefaultSQLite = "sqlite"

// NewHistoryStore creates a history store based on the DSN.
//   - Empty DSN: history disabled, returns nil
//   - "sqlite": SQLite at ~/.docqa/history.db
//   - postgres:// or postgresql://: PostgreSQL
//   - Anything else: SQLite at the specified path
func NewHistoryStore(ctx context.Context, dsn string) (driven.HistoryStore, error) {
	switch {
	case dsn == "":
		return nil, nil
	case dsn == DSNDefaultSQLite:
		return sqliteStore("")
	case IsPostgres(dsn):
		s, err := postgres.NewStore(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return s, nil
	default:
		return sqliteStore(strings.TrimPrefix(dsn, "sqlite://"))
	}
}

// IsPostgres reports whether dsn is a PostgreSQL URL.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func sqliteStore(path string) (driven.HistoryStore, error) {
	s, err := sqlite.NewStore(path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return s, nil
}
