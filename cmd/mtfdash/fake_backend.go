package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/mtfdash/internal/backend/fake"
	"github.com/newthinker/mtfdash/internal/logger"
	"github.com/newthinker/mtfdash/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fakeAddr  string
	fakeToken string
)

var fakeBackendCmd = &cobra.Command{
	Use:   "fake-backend",
	Short: "Serve sample results for local development",
	Long:  "Serve deterministic sample runs, scorecards and chart data on the results backend endpoints",
	RunE:  runFakeBackend,
}

func init() {
	fakeBackendCmd.Flags().StringVar(&fakeAddr, "addr", "127.0.0.1:8000", "listen address")
	fakeBackendCmd.Flags().StringVar(&fakeToken, "token", "", "require this X-API-Token")
	rootCmd.AddCommand(fakeBackendCmd)
}

func runFakeBackend(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	backend := fake.NewSample(time.Now().UTC())
	if fakeToken != "" {
		backend.RequireToken(fakeToken)
	}

	server := &http.Server{
		Addr:         fakeAddr,
		Handler:      metrics.LoggingMiddleware(log.Named("fake"))(backend.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("serving sample results", zap.String("addr", fakeAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("fake backend error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
