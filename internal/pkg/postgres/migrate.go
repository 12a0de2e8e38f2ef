package postgres

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type migration struct {
	version string
	sql     string
}

func loadMigrations() ([]migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("can't read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	res := make([]migration, 0, len(names))
	for _, n := range names {
		data, err := migrationFS.ReadFile("migrations/" + n)
		if err != nil {
			return nil, fmt.Errorf("can't read migration %s: %w", n, err)
		}
		res = append(res, migration{version: strings.TrimSuffix(n, ".sql"), sql: string(data)})
	}
	return res, nil
}

// Migrate applies not yet applied schema migrations in one transaction
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ms, err := loadMigrations()
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
			return fmt.Errorf("can't create schema_migrations: %w", err)
		}
		for _, m := range ms {
			var count int
			if err := tx.QueryRow(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE version = $1`,
				m.version).Scan(&count); err != nil {
				return fmt.Errorf("can't check migration %s: %w", m.version, err)
			}
			if count > 0 {
				continue
			}
			if _, err := tx.Exec(ctx, m.sql); err != nil {
				return fmt.Errorf("can't apply migration %s: %w", m.version, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
				return fmt.Errorf("can't record migration %s: %w", m.version, err)
			}
			goapp.Log.Info().Str("version", m.version).Msg("migration applied")
		}
		return nil
	})
}
