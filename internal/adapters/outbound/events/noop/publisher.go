package noop

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type Publisher struct{}

var _ portsout.SweepEventPublisher = Publisher{}

func (Publisher) PublishSweepCompleted(context.Context, dto.SweepBatchRecord) *apperrors.AppError {
	return nil
}
