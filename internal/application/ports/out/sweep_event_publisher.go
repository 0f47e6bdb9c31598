package out

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type SweepEventPublisher interface {
	PublishSweepCompleted(ctx context.Context, record dto.SweepBatchRecord) *apperrors.AppError
}
