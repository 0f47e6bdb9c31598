package out

import (
	"context"

	"invoicesweep/internal/domain/entities"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type ControllerStateRepository interface {
	Load(ctx context.Context) (entities.ControllerState, bool, *apperrors.AppError)
	Save(ctx context.Context, state entities.ControllerState) *apperrors.AppError
}
