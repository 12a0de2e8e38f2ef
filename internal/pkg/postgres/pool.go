package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool parses the connection url and opens a pool, the caller closes it.
// trace logs connection lifecycle events.
func NewPool(ctx context.Context, url string, trace bool) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("no db url")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("can't parse db url: %w", err)
	}
	goapp.Log.Info().Int32("max_conn", cfg.MaxConns).Int32("min_conn", cfg.MinConns).Msg("db info")
	if trace {
		traceConnections(cfg)
	}
	res, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("can't init db pool: %w", err)
	}
	return res, nil
}

func traceConnections(cfg *pgxpool.Config) {
	logFunc := goapp.Log.Info().Msg
	cfg.BeforeConnect = func(ctx context.Context, cc *pgx.ConnConfig) error {
		logFunc("before connect")
		return nil
	}
	cfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		logFunc("after connect")
		return nil
	}
	cfg.BeforeAcquire = func(ctx context.Context, c *pgx.Conn) bool {
		logFunc("before acquire")
		return true
	}
	cfg.AfterRelease = func(c *pgx.Conn) bool {
		logFunc("after release")
		return true
	}
}
