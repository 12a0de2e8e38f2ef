package postgres

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cleaner deletes all project records by ID
type Cleaner struct {
	pool *pgxpool.Pool
	// child tables first, segments reference speakers
	tables []cleanTable
}

type cleanTable struct {
	name, field string
}

// NewCleaner creates Cleaner instance
func NewCleaner(pool *pgxpool.Pool) (*Cleaner, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	res := &Cleaner{pool: pool, tables: []cleanTable{{name: "segments", field: "project_id"},
		{name: "speakers", field: "project_id"}, {name: "email_lock", field: "id"}, {name: "projects", field: "id"}}}
	return res, nil
}

// Clean deletes project rows from all tables
func (db *Cleaner) Clean(ctx context.Context, id string) error {
	for _, t := range db.tables {
		cmd, err := db.pool.Exec(ctx, `DELETE FROM `+t.name+` WHERE `+t.field+` = $1`, id)
		if err != nil {
			return fmt.Errorf("can't delete %s(%s): %w", id, t.name, err)
		}
		goapp.Log.Info().Str("ID", id).Str("table", t.name).Int64("rows", cmd.RowsAffected()).Msg("deleted")
	}
	return nil
}
