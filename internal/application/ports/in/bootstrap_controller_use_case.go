package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type BootstrapControllerUseCase interface {
	Execute(ctx context.Context, command dto.BootstrapControllerCommand) (dto.ControllerResource, *apperrors.AppError)
}
