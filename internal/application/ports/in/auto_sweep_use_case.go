package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type AutoSweepUseCase interface {
	Execute(ctx context.Context, command dto.AutoSweepCommand) (dto.AutoSweepOutput, *apperrors.AppError)
}
