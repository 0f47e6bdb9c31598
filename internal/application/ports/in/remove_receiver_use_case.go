package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type RemoveReceiverUseCase interface {
	Execute(ctx context.Context, command dto.RemoveReceiverCommand) (dto.ReceiverMutationOutput, *apperrors.AppError)
}
