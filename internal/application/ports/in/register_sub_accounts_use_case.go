package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type RegisterSubAccountsUseCase interface {
	Execute(ctx context.Context, command dto.RegisterSubAccountsCommand) (dto.RegisterSubAccountsOutput, *apperrors.AppError)
}
