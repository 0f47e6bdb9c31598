package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type GetControllerUseCase interface {
	Execute(ctx context.Context, query dto.GetControllerQuery) (dto.ControllerResource, *apperrors.AppError)
}
