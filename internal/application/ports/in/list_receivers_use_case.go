package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type ListReceiversUseCase interface {
	Execute(ctx context.Context, query dto.ListReceiversQuery) (dto.ListReceiversOutput, *apperrors.AppError)
}
