package pipeline

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reunipet/reunipet/internal/model"
)

// Job is one analysis unit: a freshly created record plus its raw image bytes.
type Job struct {
	Record *model.PetRecord
	Image  []byte
}

// Config controls queue capacity and worker parallelism.
type Config struct {
	Workers   int
	QueueSize int
}

// Worker decouples analysis from the record-creation request path. Handlers
// submit jobs without blocking; failures land in the worker's log, never in a
// creation response.
type Worker struct {
	analyzer *Analyzer
	jobs     chan Job
	cfg      Config
	log      zerolog.Logger
}

// NewWorker constructs a Worker from dependencies.
func NewWorker(analyzer *Analyzer, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Worker{
		analyzer: analyzer,
		jobs:     make(chan Job, cfg.QueueSize),
		cfg:      cfg,
		log:      log,
	}
}

// Submit enqueues a job without blocking. Returns false when the queue is
// full; the record then simply stays un-analyzed (its creation has already
// succeeded).
func (w *Worker) Submit(job Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		w.log.Warn().Str("recordId", job.Record.ID).Msg("analysis queue full, job dropped")
		return false
	}
}

// Run consumes jobs until ctx is canceled. A job's analysis is not canceled
// once started; shutdown waits for in-flight jobs to finish.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("workers", w.cfg.Workers).Int("queue", w.cfg.QueueSize).Msg("matching pipeline starting")

	// Analyses outlive ctx cancellation; they are not cancellable mid-flight.
	jobCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-w.jobs:
					w.process(jobCtx, job)
				}
			}
		}()
	}
	wg.Wait()
	w.log.Info().Msg("matching pipeline stopping")
	return ctx.Err()
}

// process is the error sink for fire-and-forget analyses.
func (w *Worker) process(ctx context.Context, job Job) {
	if err := w.analyzer.Analyze(ctx, job.Record, job.Image); err != nil {
		w.log.Error().Err(err).Str("recordId", job.Record.ID).Msg("analysis failed")
	}
}
