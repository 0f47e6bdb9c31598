package local

import (
	"context"

	portsout "invoicesweep/internal/application/ports/out"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

// BatchLock is a context-aware in-process mutex.
type BatchLock struct {
	slot chan struct{}
}

var _ portsout.BatchLock = (*BatchLock)(nil)

func NewBatchLock() *BatchLock {
	return &BatchLock{slot: make(chan struct{}, 1)}
}

func (l *BatchLock) Acquire(ctx context.Context) (func(), *apperrors.AppError) {
	select {
	case l.slot <- struct{}{}:
		released := false
		return func() {
			if released {
				return
			}
			released = true
			<-l.slot
		}, nil
	case <-ctx.Done():
		return nil, apperrors.NewConflict(
			"sweep_batch_in_progress",
			"another sweep batch is in progress",
			map[string]any{"error": ctx.Err().Error()},
		)
	}
}
