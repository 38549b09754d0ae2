package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/mtfdash/internal/api"
	"github.com/newthinker/mtfdash/internal/client"
	"github.com/newthinker/mtfdash/internal/config"
	"github.com/newthinker/mtfdash/internal/core"
	"github.com/newthinker/mtfdash/internal/dashboard"
	"github.com/newthinker/mtfdash/internal/logger"
	"github.com/newthinker/mtfdash/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Initialize logger
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}
	if !debug && cfg.Server.Mode == config.ModeDebug {
		log = logger.Must(true)
		defer log.Sync()
	}

	log.Info("starting dashboard server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	var reg *metrics.Registry
	opts := []client.Option{client.WithTimeout(cfg.Backend.Timeout)}
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		opts = append(opts, client.WithObserver(reg))
	}
	if cfg.Backend.Token != "" {
		opts = append(opts, client.WithToken(cfg.Backend.Token))
	}

	ctrl := dashboard.New(client.New(cfg.Backend.BaseURL, opts...), log.Named("dashboard"))
	ctrl.SetRunLimit(cfg.Backend.RunLimit)
	if reg != nil {
		ctrl.SetMetrics(reg)
	}

	// The page shows the banner when the backend is down; keep serving so a
	// refresh can recover.
	initCtx, cancelInit := context.WithTimeout(context.Background(), cfg.Backend.Timeout*2)
	if err := ctrl.Init(initCtx); err != nil && !errors.Is(err, core.ErrStaleFlow) {
		log.Warn("initial load failed", zap.Error(err))
	}
	cancelInit()

	server, err := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		APIKey:       cfg.Server.APIKey,
		TemplatesDir: cfg.UI.TemplatesDir,
		Title:        cfg.UI.Title,
		MetricsPath:  cfg.Metrics.Path,
	}, api.Dependencies{
		Controller: ctrl,
		Metrics:    reg,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down dashboard server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
