package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type WithdrawUseCase interface {
	Execute(ctx context.Context, command dto.WithdrawCommand) (dto.WithdrawOutput, *apperrors.AppError)
}
