package clickhouse

import (
	"context"
	"database/sql"
	"fmt"

	syncDomain "github.com/davicafu/possync/internal/sync/domain"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// RunHistoryRepo guarda un histórico de ejecuciones en ClickHouse para analítica.
type RunHistoryRepo struct {
	db *sql.DB
}

// NewRunHistoryRepo abre la conexión y comprueba que responde.
func NewRunHistoryRepo(addr string, dbName string) (*RunHistoryRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &RunHistoryRepo{db: conn}, nil
}

func (r *RunHistoryRepo) Close() error { return r.db.Close() }

// ObserveRun inserta el resumen de la ejecución. ClickHouse trabaja mejor con
// inserciones en lote, así que se usa la misma ruta tx + prepare aunque sea una fila.
func (r *RunHistoryRepo) ObserveRun(ctx context.Context, s syncDomain.RunSummary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO sync_runs (
		run_id, status, message, sales_synced, purchases_synced, sales_duplicates,
		purchases_duplicates, profiles_added, total_processed, tracked_invoices,
		from_date, to_date, started_at, finished_at)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	var from, to string
	if s.Period != nil {
		from, to = s.Period.FromDate, s.Period.ToDate
	}
	if _, err := stmt.ExecContext(ctx,
		s.RunID,
		string(s.Status),
		s.Message,
		uint32(s.SalesSynced),
		uint32(s.PurchasesSynced),
		uint32(s.SalesDuplicates),
		uint32(s.PurchasesDuplicates),
		uint32(s.ProfilesAdded),
		uint32(s.TotalProcessed),
		uint32(s.TrackedInvoices),
		from,
		to,
		s.StartedAt,
		s.FinishedAt,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record run %s: %w", s.RunID, err)
	}
	return tx.Commit()
}

// RecentRuns devuelve las últimas ejecuciones, de la más reciente a la más antigua.
func (r *RunHistoryRepo) RecentRuns(ctx context.Context, limit int) ([]syncDomain.RunSummary, error) {
	query := `
		SELECT run_id, status, message, sales_synced, purchases_synced, sales_duplicates,
		       purchases_duplicates, profiles_added, total_processed, tracked_invoices,
		       from_date, to_date, started_at, finished_at
		FROM sync_runs
		ORDER BY finished_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []syncDomain.RunSummary
	for rows.Next() {
		var (
			s                                        syncDomain.RunSummary
			status                                   string
			sales, purchases, salesDup, purchasesDup uint32
			profiles, total, tracked                 uint32
			from, to                                 string
		)
		if err := rows.Scan(&s.RunID, &status, &s.Message, &sales, &purchases, &salesDup,
			&purchasesDup, &profiles, &total, &tracked, &from, &to, &s.StartedAt, &s.FinishedAt); err != nil {
			return nil, err
		}
		s.Status = syncDomain.RunStatus(status)
		s.SalesSynced, s.PurchasesSynced = int(sales), int(purchases)
		s.SalesDuplicates, s.PurchasesDuplicates = int(salesDup), int(purchasesDup)
		s.DuplicatesSkipped = s.SalesDuplicates + s.PurchasesDuplicates
		s.ProfilesAdded, s.TotalProcessed, s.TrackedInvoices = int(profiles), int(total), int(tracked)
		if from != "" || to != "" {
			s.Period = &syncDomain.Period{FromDate: from, ToDate: to}
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// InitSchema crea la tabla en ClickHouse si no existe.
func (r *RunHistoryRepo) InitSchema(ctx context.Context) error {
	// Particionada por mes y ordenada por fin de ejecución.
	query := `
		CREATE TABLE IF NOT EXISTS sync_runs (
			run_id               String,
			status               LowCardinality(String),
			message              String,
			sales_synced         UInt32,
			purchases_synced     UInt32,
			sales_duplicates     UInt32,
			purchases_duplicates UInt32,
			profiles_added       UInt32,
			total_processed      UInt32,
			tracked_invoices     UInt32,
			from_date            String,
			to_date              String,
			started_at           DateTime64(3),
			finished_at          DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(finished_at)
		ORDER BY (status, finished_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Verificación estática de la interfaz.
var _ syncDomain.RunObserver = (*RunHistoryRepo)(nil)
