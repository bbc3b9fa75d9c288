package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/davicafu/possync/internal/config"
	sharedEvents "github.com/davicafu/possync/internal/shared/infra/events"
	sharedCache "github.com/davicafu/possync/internal/shared/infra/platform/cache"
	sharedMetrics "github.com/davicafu/possync/internal/shared/infra/platform/metrics"
	syncApp "github.com/davicafu/possync/internal/sync/application"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/davicafu/possync/internal/sync/infra/outbound/analytics/clickhouse"
	syncEvents "github.com/davicafu/possync/internal/sync/infra/outbound/events"
	"github.com/davicafu/possync/internal/sync/infra/outbound/idempotency"
	idemPebble "github.com/davicafu/possync/internal/sync/infra/outbound/idempotency/pebble"
	idemPostgres "github.com/davicafu/possync/internal/sync/infra/outbound/idempotency/postgres"
	idemRedis "github.com/davicafu/possync/internal/sync/infra/outbound/idempotency/redis"
	idemSQLite "github.com/davicafu/possync/internal/sync/infra/outbound/idempotency/sqlite"
	syncMetrics "github.com/davicafu/possync/internal/sync/infra/outbound/metrics"
	"github.com/davicafu/possync/internal/sync/infra/outbound/sink/klaviyo"
	"github.com/davicafu/possync/internal/sync/infra/outbound/source/rics"
)

const (
	metricsJob      = "possync"
	profileCacheTTL = 24 * time.Hour
)

// App agrupa lo que necesitan los binarios: el servicio, el registro de
// métricas y los recursos a cerrar al salir.
type App struct {
	Service *syncApp.SyncService
	Store   *idempotency.Store
	Metrics *sharedMetrics.Registry

	closers []func() error
	log     *zap.Logger
}

// Build monta todas las dependencias a partir de la configuración y carga el
// estado de idempotencia una sola vez.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{log: log}

	storeCode, err := strconv.Atoi(cfg.RICSStoreCode)
	if err != nil {
		return nil, fmt.Errorf("invalid store code %q: %w", cfg.RICSStoreCode, err)
	}

	// ---------------- Idempotencia ----------------
	persister, err := app.newPersister(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = idempotency.NewStore(persister, cfg.IdempotencyMaxRecords, log)
	app.Store.Load(ctx)

	// ---------------- Adaptadores ----------------
	source := rics.NewClient(rics.Config{
		BaseURL:   cfg.RICSAPIURL,
		APIKey:    cfg.RICSAPIKey,
		StoreCode: storeCode,
		PageSize:  cfg.RICSPageSize,
		Timeout:   cfg.HTTPTimeout,
	}, log)

	sink := klaviyo.NewClient(klaviyo.Config{
		BaseURL: cfg.KlaviyoURL,
		APIKey:  cfg.KlaviyoAPIKey,
		ListID:  cfg.KlaviyoListID,
		Timeout: cfg.HTTPTimeout,
	}, app.newProfileCache(ctx, cfg), log)

	// ---------------- Observadores ----------------
	app.Metrics = sharedMetrics.NewRegistry(cfg.PushgatewayURL, metricsJob)
	observers := []syncDomain.RunObserver{syncMetrics.NewRunMetrics(app.Metrics, log)}
	observers = append(observers, app.newOptionalObservers(ctx, cfg)...)

	// --------------- Servicio --------------
	formatter := syncDomain.NewFormatter(cfg.PurchaseProfileEmail, time.Now)
	reconciler := syncApp.NewReconciler(app.Store, sink, formatter, log)
	app.Service = syncApp.NewSyncService(source, sink, app.Store, reconciler, log,
		syncApp.WithLookbackDays(cfg.LookbackDays),
		syncApp.WithObservers(observers...),
	)
	return app, nil
}

// Close libera los recursos en orden inverso al de creación.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("Error closing resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *App) newPersister(ctx context.Context, cfg *config.Config) (idempotency.Persister, error) {
	switch cfg.IdempotencyBackend {
	case config.BackendSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		a.log.Info("Idempotency state in SQLite", zap.String("path", cfg.SQLitePath))
		return idemSQLite.NewPersister(ctx, db)

	case config.BackendPostgres:
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open Postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping Postgres: %w", err)
		}
		a.log.Info("Idempotency state in Postgres")
		return idemPostgres.NewPersister(ctx, db)

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		a.log.Info("Idempotency state in Redis", zap.String("addr", cfg.RedisAddr))
		return idemRedis.NewPersister(rdb, idemRedis.DefaultKey), nil

	case config.BackendPebble:
		p, err := idemPebble.NewPersister(cfg.PebbleDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open Pebble: %w", err)
		}
		a.closers = append(a.closers, p.Close)
		a.log.Info("Idempotency state in Pebble", zap.String("dir", cfg.PebbleDir))
		return p, nil

	default:
		a.log.Info("Idempotency state in JSON file", zap.String("path", cfg.IdempotencyFile))
		return idempotency.NewFilePersister(cfg.IdempotencyFile), nil
	}
}

// newProfileCache usa Redis si está configurado y responde; si no, caché en memoria.
func (a *App) newProfileCache(ctx context.Context, cfg *config.Config) sharedCache.Cache {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.log.Warn("⚠️ Redis no disponible, cache de perfiles en memoria", zap.Error(err))
			rdb.Close()
		} else {
			a.closers = append(a.closers, rdb.Close)
			a.log.Info("✅ Redis conectado, cache de perfiles habilitada")
			return sharedCache.NewRedisCache(rdb, "possync:profile:", profileCacheTTL)
		}
	}
	mem := sharedCache.NewInMemoryCache(profileCacheTTL, time.Hour)
	a.closers = append(a.closers, func() error { mem.Stop(); return nil })
	return mem
}

// newOptionalObservers añade Kafka y ClickHouse cuando están configurados. Un
// fallo al conectar sólo se registra: la sincronización no depende de ellos.
func (a *App) newOptionalObservers(ctx context.Context, cfg *config.Config) []syncDomain.RunObserver {
	var observers []syncDomain.RunObserver

	if len(cfg.KafkaBrokers) > 0 {
		a.log.Info("🚀 Publicando resúmenes en Kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
		publisher := sharedEvents.NewKafkaPublisher(sharedEvents.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), a.log)
		a.closers = append(a.closers, publisher.Close)
		observers = append(observers, syncEvents.NewRunPublisher(publisher, a.log))
	}

	if cfg.ClickHouseAddr != "" {
		repo, err := clickhouse.NewRunHistoryRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			a.log.Warn("⚠️ ClickHouse no disponible, sin histórico de ejecuciones", zap.Error(err))
		} else if err := repo.InitSchema(ctx); err != nil {
			a.log.Warn("⚠️ No se pudo crear la tabla de histórico", zap.Error(err))
			repo.Close()
		} else {
			a.closers = append(a.closers, repo.Close)
			observers = append(observers, repo)
		}
	}
	return observers
}
