package in

import (
	"context"

	"invoicesweep/internal/application/dto"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

// SweepSubAccountUseCase is the externally reachable sweep entry point of a
// single sub-account. Only the controller identity may trigger it.
type SweepSubAccountUseCase interface {
	Execute(ctx context.Context, command dto.SweepSubAccountCommand) *apperrors.AppError
}
