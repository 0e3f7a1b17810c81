package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/spf13/cobra"

	"parking-guide-backend/internal/api"
	"parking-guide-backend/internal/db"
	"parking-guide-backend/internal/live"
	"parking-guide-backend/internal/logger"
	"parking-guide-backend/internal/metrics"
	"parking-guide-backend/internal/notification"
	"parking-guide-backend/internal/store"
	"parking-guide-backend/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, live feed and lot watcher",
	RunE:  serve,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	eng, err := newEngine(cfg, m, log)
	if err != nil {
		return err
	}
	eng.instrument(m)

	gormDB, err := db.Init(&cfg.Database, logger.Component(log, "db"))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)
	eng.searcher.SetHistory(appStore)

	hub := live.NewHub(logger.Component(log, "live"))
	hub.SetInitDataProvider(func() any {
		return map[string]any{
			"key_scheme":      eng.scheme.String(),
			"watcher_enabled": cfg.Watcher.Enabled,
		}
	})
	go hub.Run(ctx)

	var (
		pushOptions *webpush.Options
		dispatcher  watcher.Dispatcher
	)
	if cfg.Push.Enabled() {
		pushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pool := notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, pushOptions, logger.Component(log, "notification"))
		pool.SetRecorder(m)
		pool.Start(ctx)
		dispatcher = pool
	} else {
		log.Warn().Msg("VAPID keys not configured, push alerts disabled")
	}

	watchSvc := watcher.NewService(cfg.Watcher, appStore, eng.catalog, eng.watchFetcher, dispatcher, hub, logger.Component(log, "watcher"))
	go watchSvc.Run(ctx)

	h, err := api.NewHandler(api.Deps{
		Config:   cfg,
		Backend:  eng.client,
		Catalog:  eng.catalog,
		Searcher: eng.searcher,
		Store:    appStore,
		Hub:      hub,
		WebPush:  pushOptions,
		Log:      logger.Component(log, "api"),
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(h, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received, stopping services")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}
