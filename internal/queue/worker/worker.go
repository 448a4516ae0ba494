package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/geocoder89/tourhub/internal/observability"
)

// Source is the slice of the queue the worker needs.
type Source interface {
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error)
	Retry(ctx context.Context, j jobs.Job, delay time.Duration) error
	DeadLetter(ctx context.Context, j jobs.Job) error
	PromoteDue(ctx context.Context) (int, error)
}

type Config struct {
	WorkerID      string
	Concurrency   int
	PollTimeout   time.Duration // how long one BRPOP blocks
	PromoteEvery  time.Duration
	ShutdownGrace time.Duration
	AppURL        string
	Backoff       Backoff
}

type Worker struct {
	cfg     Config
	src     Source
	mailer  notifications.Mailer
	log     *slog.Logger
	prom    *observability.Prom
	metrics *observability.JobMetrics
	backoff func(attempt int) time.Duration

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, src Source, mailer notifications.Mailer, log *slog.Logger, prom *observability.Prom, metrics *observability.JobMetrics) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	if cfg.PromoteEvery <= 0 {
		cfg.PromoteEvery = time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.Backoff.Base <= 0 || cfg.Backoff.Max < cfg.Backoff.Base {
		cfg.Backoff = DefaultBackoff
	}
	if metrics == nil {
		metrics = observability.NewJobMetrics()
	}

	return &Worker{
		cfg:     cfg,
		src:     src,
		mailer:  mailer,
		log:     log.With("worker_id", cfg.WorkerID),
		prom:    prom,
		metrics: metrics,
		backoff: cfg.Backoff.Delay,
	}
}

// Run consumes jobs until ctx is cancelled, then waits up to ShutdownGrace
// for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	// in-flight sends finish on their own context so a shutdown does not cut
	// an email in half
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx, workCtx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		cancelWork()
		<-done
		w.log.Warn("worker shutdown grace exceeded, in-flight jobs cancelled")
		return nil
	}
}

func (w *Worker) loop(ctx, workCtx context.Context) {
	for ctx.Err() == nil {
		if _, err := w.ProcessOne(ctx, workCtx); err != nil && ctx.Err() == nil {
			w.log.Error("worker.step_failed", "err", err)
			// avoid spinning on a broken redis connection
			select {
			case <-ctx.Done():
			case <-time.After(w.cfg.PollTimeout):
			}
		}
	}
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PromoteEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.src.PromoteDue(ctx)
			if err != nil && ctx.Err() == nil {
				w.log.Error("worker.promote_failed", "err", err)
				continue
			}
			if n > 0 {
				w.log.Debug("worker.promoted", "count", n)
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

func (w *Worker) Metrics() observability.JobMetricsSnapshot {
	return w.metrics.Snapshot()
}
