package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/possync/internal/bootstrap"
	config "github.com/davicafu/possync/internal/config"
	syncHttp "github.com/davicafu/possync/internal/sync/infra/inbound/http"
	"github.com/davicafu/possync/pkg/logger"
)

// ---------------- Main ----------------
func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to build application", zap.Error(err))
	}
	defer app.Close()

	// ---------------- HTTP ----------------
	router := gin.New()
	router.Use(gin.Recovery())
	syncHttp.RegisterSyncRoutes(router, syncHttp.NewSyncHandler(app.Service, log), app.Metrics.Handler())

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
