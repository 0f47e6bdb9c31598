package autosweep

import (
	"context"
	"time"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type Worker struct {
	enabled       bool
	pollInterval  time.Duration
	batchSize     int
	workerID      string
	leaseDuration time.Duration
	useCase       portsin.AutoSweepUseCase
	logger        logrus.FieldLogger
}

func NewWorker(
	enabled bool,
	pollInterval time.Duration,
	batchSize int,
	workerID string,
	leaseDuration time.Duration,
	useCase portsin.AutoSweepUseCase,
	logger logrus.FieldLogger,
) *Worker {
	return &Worker{
		enabled:       enabled,
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		workerID:      workerID,
		leaseDuration: leaseDuration,
		useCase:       useCase,
		logger:        logger,
	}
}

func (w *Worker) Enabled() bool {
	return w != nil && w.enabled
}

// Start runs one cycle immediately and then one per poll interval until ctx
// is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if w == nil || !w.enabled || w.useCase == nil {
		return
	}

	w.logf(
		"auto-sweep worker started worker_id=%s poll_interval=%s batch_size=%d lease_duration=%s",
		w.workerID,
		w.pollInterval,
		w.batchSize,
		w.leaseDuration,
	)

	w.runCycle(ctx)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logf("auto-sweep worker stopped worker_id=%s", w.workerID)
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

func (w *Worker) runCycle(ctx context.Context) {
	startedAt := time.Now().UTC()
	output, appErr := w.useCase.Execute(ctx, dto.AutoSweepCommand{
		Now:           startedAt,
		BatchSize:     w.batchSize,
		WorkerID:      w.workerID,
		LeaseDuration: w.leaseDuration,
	})
	if appErr != nil {
		if w.logger != nil {
			w.logger.Warnf(
				"auto-sweep cycle failed code=%s message=%s details=%v",
				appErr.Code,
				appErr.Message,
				appErr.Details,
			)
		}
		return
	}

	w.logf(
		"auto-sweep cycle completed worker_id=%s claimed=%d swept=%d transfers=%d batch_id=%s errors=%d latency_ms=%d",
		w.workerID,
		output.Claimed,
		output.Swept,
		output.Transfers,
		output.BatchID,
		output.Errors,
		time.Since(startedAt).Milliseconds(),
	)
}

func (w *Worker) logf(format string, args ...any) {
	if w.logger == nil {
		return
	}
	w.logger.Infof(format, args...)
}
