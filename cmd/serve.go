package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cwbudde/pixeldiff/internal/compare"
	"github.com/cwbudde/pixeldiff/internal/server"
)

var (
	serveAddr string
	envFile   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP comparison API",
	Long:  `Starts an HTTP server exposing POST /api/v1/compare and GET /healthz.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default $PIXELDIFF_ADDR or :8080)")
	serveCmd.Flags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// A missing env file is fine; explicit settings still come from the
	// process environment or flags.
	if err := godotenv.Load(envFile); err == nil {
		slog.Info("Loaded environment file", "path", envFile)
	}

	addr := serveAddr
	if addr == "" {
		addr = envString("PIXELDIFF_ADDR", ":8080")
	}

	softLimit, err := envBytes("PIXELDIFF_SOFT_LIMIT_BYTES", 3<<20)
	if err != nil {
		return err
	}
	hardLimit, err := envBytes("PIXELDIFF_HARD_LIMIT_BYTES", 6<<20)
	if err != nil {
		return err
	}
	if hardLimit > 0 && softLimit > hardLimit {
		return fmt.Errorf("soft limit %d exceeds hard limit %d", softLimit, hardLimit)
	}

	srv := server.NewServer(addr, compare.New(softLimit, hardLimit))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBytes(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
