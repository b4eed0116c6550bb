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

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/lightpivot"
	"github.com/aretw0/lightpivot/internal/cli"
	lphttp "github.com/aretw0/lightpivot/pkg/adapters/http"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the pivot table navigation as a JSON API, step events as SSE on
/events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetString("port")
		opts := optionsFromFlags(cmd)
		logger := serviceLogger(opts.Debug)

		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics := observability.NewMetrics(reg)

		// The API server needs the table and the table needs the server's hooks.
		var api *lphttp.Server
		events := domain.LifecycleHooks{
			OnCommit:   func(ctx context.Context, e *domain.StepEvent) { api.Hooks().OnCommit(ctx, e) },
			OnRollback: func(ctx context.Context, e *domain.StepEvent) { api.Hooks().OnRollback(ctx, e) },
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		table, closeTable, err := cli.NewTable(ctx, cfg, opts, logger,
			lightpivot.WithLifecycleHooks(observability.ComposeHooks(metrics.Hooks(), events)),
			lightpivot.WithoutInitialRefresh(),
		)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeTable(); err != nil {
				logger.Warn("close failed", "err", err)
			}
		}()
		api = lphttp.NewServer(table, lphttp.WithLogger(logger), lphttp.WithVersion(lightpivot.Version))
		table.Refresh(ctx)

		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		r.Mount("/", api.Routes())

		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("lightpivot server listening", "address", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("lightpivot server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
