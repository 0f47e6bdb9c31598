package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type ComputeAddressUseCase interface {
	Execute(ctx context.Context, query dto.ComputeAddressQuery) (dto.ComputeAddressOutput, *apperrors.AppError)
}
