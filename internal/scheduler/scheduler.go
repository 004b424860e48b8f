// Package scheduler wires the recurring background jobs (feed ingest,
// summarization sweep, profile recompute) onto cron schedules, feeding
// the shared worker pool.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curator/internal/core"
	"curator/internal/ingest"
	"curator/internal/logger"
	"curator/internal/prefs"
	"curator/internal/store"
	"curator/internal/summarize"
	"curator/internal/worker"

	"github.com/robfig/cron/v3"
)

// sweepBatchSize bounds how many pending articles one summarize sweep
// enqueues; the next sweep picks up the rest.
const sweepBatchSize = 64

// Schedules holds the cron expressions for the recurring jobs. An empty
// expression disables that job.
type Schedules struct {
	Ingest    string
	Summarize string
	Recompute string
}

// Scheduler runs the recurring jobs.
type Scheduler struct {
	cron         *cron.Cron
	store        *store.Store
	ingestor     *ingest.Ingestor
	orchestrator *summarize.Orchestrator
	learner      *prefs.Learner
	pool         *worker.Pool
}

// New creates a scheduler over the given components.
func New(s *store.Store, ing *ingest.Ingestor, orch *summarize.Orchestrator, learner *prefs.Learner, pool *worker.Pool) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		store:        s,
		ingestor:     ing,
		orchestrator: orch,
		learner:      learner,
		pool:         pool,
	}
}

// Start registers the jobs and starts the cron loop. The context is
// captured by the job closures; cancelling it makes queued jobs no-ops.
func (s *Scheduler) Start(ctx context.Context, schedules Schedules) error {
	entries := []struct {
		name string
		spec string
		run  func()
	}{
		{"ingest", schedules.Ingest, func() { s.enqueueIngest(ctx) }},
		{"summarize", schedules.Summarize, func() { s.enqueueSummarize(ctx) }},
		{"recompute", schedules.Recompute, func() { s.enqueueRecompute(ctx) }},
	}

	for _, entry := range entries {
		if entry.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(entry.spec, entry.run); err != nil {
			return fmt.Errorf("failed to schedule %s job (%q): %w", entry.name, entry.spec, err)
		}
		logger.Info("job scheduled", "job", entry.name, "spec", entry.spec)
	}

	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// enqueueIngest submits one task per active source so a slow feed only
// occupies one worker.
func (s *Scheduler) enqueueIngest(ctx context.Context) {
	sources, err := s.store.ListSources(ctx, true)
	if err != nil {
		logger.Error("failed to list sources for ingest", err)
		return
	}

	for _, source := range sources {
		src := source
		task := worker.Task{
			Name: "ingest:" + src.ID,
			Run: func(ctx context.Context) error {
				_, err := s.ingestor.Ingest(ctx, src)
				return err
			},
		}
		if err := s.pool.Submit(task); err != nil {
			if errors.Is(err, worker.ErrQueueFull) {
				logger.Warn("ingest task dropped, queue full", "source", src.ID)
				continue
			}
			logger.Error("failed to submit ingest task", err, "source", src.ID)
		}
	}
}

// enqueueSummarize submits a task per pending article, up to the sweep
// batch size.
func (s *Scheduler) enqueueSummarize(ctx context.Context) {
	pending, err := s.store.ListArticlesByStatus(ctx, core.StatusPending, sweepBatchSize)
	if err != nil {
		logger.Error("failed to list pending articles", err)
		return
	}

	for _, article := range pending {
		art := article
		task := worker.Task{
			Name: "summarize:" + art.ID,
			Run: func(ctx context.Context) error {
				_, err := s.orchestrator.Summarize(ctx, art)
				return err
			},
		}
		if err := s.pool.Submit(task); err != nil {
			if errors.Is(err, worker.ErrQueueFull) {
				logger.Warn("summarize task dropped, queue full", "article", art.ID)
				return
			}
			logger.Error("failed to submit summarize task", err, "article", art.ID)
		}
	}
}

func (s *Scheduler) enqueueRecompute(ctx context.Context) {
	task := worker.Task{
		Name: "recompute",
		Run: func(ctx context.Context) error {
			return s.learner.RecomputeAll(ctx, time.Now().UTC())
		},
	}
	if err := s.pool.Submit(task); err != nil {
		logger.Error("failed to submit recompute task", err)
	}
}
