package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type ListSubAccountsUseCase interface {
	Execute(ctx context.Context, query dto.ListSubAccountsQuery) (dto.ListSubAccountsOutput, *apperrors.AppError)
}
