package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type GetBalanceUseCase interface {
	Execute(ctx context.Context, query dto.GetBalanceQuery) (dto.GetBalanceOutput, *apperrors.AppError)
}
