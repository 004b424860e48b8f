package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"curator/internal/logger"
	"curator/internal/metrics"
	"curator/internal/scheduler"
	"curator/internal/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline as a long-lived service",
	Long: `Runs the scheduled pipeline: periodic feed ingest, summarization
sweeps, and nightly profile recomputes, all on a shared worker pool,
with Prometheus metrics exposed over HTTP. Stops cleanly on SIGINT or
SIGTERM; in-flight summarization jobs resolve their remaining levels
via fallback.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		orch, err := newOrchestrator(s)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool := worker.NewPool(cfg.Worker.PoolSize, cfg.Worker.QueueDepth)
		pool.Start(ctx)

		sched := scheduler.New(s, newIngestor(s), orch, newLearner(s), pool)
		err = sched.Start(ctx, scheduler.Schedules{
			Ingest:    cfg.Schedule.Ingest,
			Summarize: cfg.Schedule.Summarize,
			Recompute: cfg.Schedule.Recompute,
		})
		if err != nil {
			return err
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", err)
			}
		}()

		logger.Info("curator service started")
		<-ctx.Done()
		logger.Info("shutting down")

		sched.Stop()
		pool.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown failed", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
