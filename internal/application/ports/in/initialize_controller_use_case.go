package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type InitializeControllerUseCase interface {
	Execute(ctx context.Context, command dto.InitializeControllerCommand) (dto.ControllerResource, *apperrors.AppError)
}
