package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	_ "modernc.org/sqlite"
)

// Persister guarda las facturas sincronizadas en una tabla SQLite.
type Persister struct {
	db *sql.DB
}

var _ idempotency.Persister = (*Persister)(nil)

// InitSQLite crea la tabla si no existe.
func InitSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS synced_invoices (
			invoice    TEXT PRIMARY KEY,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func NewPersister(ctx context.Context, db *sql.DB) (*Persister, error) {
	if err := InitSQLite(ctx, db); err != nil {
		return nil, fmt.Errorf("init sqlite schema: %w", err)
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

// Save reemplaza el contenido de la tabla en una única transacción.
func (p *Persister) Save(ctx context.Context, ids []string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	if _, err := tx.ExecContext(ctx, `DELETE FROM synced_invoices`); err != nil {
		return fmt.Errorf("clear synced_invoices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO synced_invoices (invoice) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("insert invoice %s: %w", id, err)
		}
	}
	return tx.Commit()
}
