package out

import (
	"context"

	apperrors "invoicesweep/internal/shared_kernel/errors"
)

// BatchLock serializes withdraw batches and controller mutations.
type BatchLock interface {
	Acquire(ctx context.Context) (release func(), appErr *apperrors.AppError)
}
