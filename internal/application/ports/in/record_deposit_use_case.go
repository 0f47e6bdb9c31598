package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type RecordDepositUseCase interface {
	Execute(ctx context.Context, command dto.RecordDepositCommand) (dto.RecordDepositOutput, *apperrors.AppError)
}
