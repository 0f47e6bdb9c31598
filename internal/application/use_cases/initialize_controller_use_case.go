package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type initializeControllerUseCase struct {
	repository portsout.ControllerStateRepository
	lock       portsout.BatchLock
	clock      Clock
}

func NewInitializeControllerUseCase(
	repository portsout.ControllerStateRepository,
	lock portsout.BatchLock,
	clock Clock,
) portsin.InitializeControllerUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &initializeControllerUseCase{
		repository: repository,
		lock:       lock,
		clock:      clock,
	}
}

func (u *initializeControllerUseCase) Execute(ctx context.Context, command dto.InitializeControllerCommand) (dto.ControllerResource, *apperrors.AppError) {
	principal, appErr := parsePrincipal(command.PrincipalAddress)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}

	release, appErr := acquireBatchLock(ctx, u.lock)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}
	defer release()

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}
	if ownerErr := state.RequireOwner(principal); ownerErr != nil {
		return dto.ControllerResource{}, ownerErr
	}

	fingerprint, appErr := valueobjects.ParseTemplateFingerprint(command.TemplateFingerprint)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}
	if initErr := state.Initialize(principal, fingerprint, u.clock.NowUTC()); initErr != nil {
		return dto.ControllerResource{}, initErr
	}
	if saveErr := u.repository.Save(ctx, state); saveErr != nil {
		return dto.ControllerResource{}, saveErr
	}

	return toControllerResource(state), nil
}
