package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type AddReceiverUseCase interface {
	Execute(ctx context.Context, command dto.AddReceiverCommand) (dto.ReceiverMutationOutput, *apperrors.AppError)
}
