package out

import (
	"context"
	"time"

	"invoicesweep/internal/application/dto"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type SubAccountRegistry interface {
	// Register inserts unseen user ids and returns how many were new.
	Register(ctx context.Context, records []dto.SubAccountRecord) (int, *apperrors.AppError)
	List(ctx context.Context) ([]dto.SubAccountRecord, *apperrors.AppError)
	ClaimForSweep(
		ctx context.Context,
		now time.Time,
		limit int,
		leaseOwner string,
		leaseUntil time.Time,
	) ([]dto.SubAccountRecord, *apperrors.AppError)
	MarkSwept(
		ctx context.Context,
		userIDs []valueobjects.UserID,
		leaseOwner string,
		sweptAt time.Time,
	) *apperrors.AppError
}
