package out

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type SweepBatchReadModel interface {
	GetByID(ctx context.Context, id string) (dto.SweepBatchRecord, bool, *apperrors.AppError)
}
