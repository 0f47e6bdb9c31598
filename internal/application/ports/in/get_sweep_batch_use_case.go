package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type GetSweepBatchUseCase interface {
	Execute(ctx context.Context, query dto.GetSweepBatchQuery) (dto.SweepBatchResource, *apperrors.AppError)
}
