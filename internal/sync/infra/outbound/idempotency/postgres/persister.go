package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	_ "github.com/jackc/pgx/v5/stdlib" // Driver de PostgreSQL
)

// Persister guarda las facturas sincronizadas en PostgreSQL.
type Persister struct {
	db *sql.DB
}

var _ idempotency.Persister = (*Persister)(nil)

func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS synced_invoices (
			invoice    TEXT PRIMARY KEY,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	return err
}

func NewPersister(ctx context.Context, db *sql.DB) (*Persister, error) {
	if err := InitPostgres(ctx, db); err != nil {
		return nil, fmt.Errorf("init postgres schema: %w", err)
	}
	return &Persister{db: db}, nil
}

func (p *Persister) Load(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT invoice FROM synced_invoices ORDER BY invoice`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, idempotency.ErrStateNotFound
	}
	return ids, nil
}

// Save reemplaza la tabla completa dentro de una transacción; un fallo deja el estado anterior.
func (p *Persister) Save(ctx context.Context, ids []string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM synced_invoices`); err != nil {
		return fmt.Errorf("clear synced_invoices: %w", err)
	}
	if len(ids) > 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO synced_invoices (invoice) SELECT unnest($1::text[])`, ids,
		); err != nil {
			return fmt.Errorf("insert invoices: %w", err)
		}
	}
	return tx.Commit()
}
