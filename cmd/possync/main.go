package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/possync/internal/bootstrap"
	config "github.com/davicafu/possync/internal/config"
	syncDomain "github.com/davicafu/possync/internal/sync/domain"
	"github.com/davicafu/possync/pkg/logger"
)

// Ejecución manual: comprueba conexiones y lanza una sincronización.
func main() {
	from := flag.String("from", "", "window start (YYYY-MM-DD); defaults to LOOKBACK_DAYS ago")
	to := flag.String("to", "", "window end (YYYY-MM-DD); defaults to now")
	skipChecks := flag.Bool("skip-checks", false, "skip the API connection tests")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		_ = logger.Init("info")
		logger.Sugar().Fatalf("invalid configuration: %v", err)
	}
	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(err)
	}
	log := logger.Logger()
	defer log.Sync()

	window, err := parseWindow(*from, *to, cfg.LookbackDays)
	if err != nil {
		log.Fatal("invalid window", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}
	defer app.Close()

	log.Info("Starting RICS to Klaviyo sync", zap.String("region", cfg.Region))

	if !*skipChecks {
		results := app.Service.TestConnections(ctx)
		for name, ok := range results {
			if !ok {
				log.Error("❌ API connection tests failed", zap.String("api", name), zap.Any("results", results))
				app.Close()
				os.Exit(1)
			}
		}
	}

	summary := app.Service.Run(ctx, window)
	out, _ := json.MarshalIndent(summary, "", "  ")
	os.Stdout.Write(append(out, '\n'))

	if !summary.Succeeded() {
		log.Error("Sync failed", zap.String("message", summary.Message))
		app.Close()
		os.Exit(1)
	}
	log.Info("✅ Sync completed successfully")
}

// parseWindow completa la fecha que falte con la ventana por defecto.
func parseWindow(from, to string, lookbackDays int) (*syncDomain.Window, error) {
	if from == "" && to == "" {
		return nil, nil
	}
	now := time.Now().UTC()
	w := syncDomain.Window{From: now, To: now}
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, err
		}
		w.From = t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, err
		}
		w.To = t
	}
	if from == "" {
		w.From = w.To.AddDate(0, 0, -lookbackDays)
	}
	if w.To.Before(w.From) {
		return nil, errors.New("-to is before -from")
	}
	return &w, nil
}
