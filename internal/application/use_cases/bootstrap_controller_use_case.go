package use_cases

import (
	"context"
	"strings"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type bootstrapControllerUseCase struct {
	repository portsout.ControllerStateRepository
	lock       portsout.BatchLock
	clock      Clock
}

// NewBootstrapControllerUseCase persists the configured controller and
// owner identities on first start and checks them on every later start.
func NewBootstrapControllerUseCase(
	repository portsout.ControllerStateRepository,
	lock portsout.BatchLock,
	clock Clock,
) portsin.BootstrapControllerUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &bootstrapControllerUseCase{
		repository: repository,
		lock:       lock,
		clock:      clock,
	}
}

func (u *bootstrapControllerUseCase) Execute(ctx context.Context, command dto.BootstrapControllerCommand) (dto.ControllerResource, *apperrors.AppError) {
	if u.repository == nil {
		return dto.ControllerResource{}, apperrors.NewInternal(
			"controller_state_repository_missing",
			"controller state repository is required",
			nil,
		)
	}

	controllerAddress, appErr := valueobjects.ParseNonZeroAddress("controller_address", command.ControllerAddress)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}
	owner, appErr := valueobjects.ParseNonZeroAddress("owner_address", command.OwnerAddress)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}

	var fingerprint *valueobjects.TemplateFingerprint
	if strings.TrimSpace(command.TemplateFingerprint) != "" {
		parsed, parseErr := valueobjects.ParseTemplateFingerprint(command.TemplateFingerprint)
		if parseErr != nil {
			return dto.ControllerResource{}, parseErr
		}
		fingerprint = &parsed
	}

	release, appErr := acquireBatchLock(ctx, u.lock)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}
	defer release()

	state, found, appErr := u.repository.Load(ctx)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}

	dirty := false
	if !found {
		state, appErr = entities.NewControllerState(controllerAddress, owner)
		if appErr != nil {
			return dto.ControllerResource{}, appErr
		}
		dirty = true
	} else if state.ControllerAddress != controllerAddress || state.Owner != owner {
		return dto.ControllerResource{}, apperrors.NewPrecondition(
			"controller_owner_mismatch",
			"configured controller identity does not match the persisted controller",
			map[string]any{
				"configured_controller": valueobjects.FormatAddress(controllerAddress),
				"persisted_controller":  valueobjects.FormatAddress(state.ControllerAddress),
				"configured_owner":      valueobjects.FormatAddress(owner),
				"persisted_owner":       valueobjects.FormatAddress(state.Owner),
			},
		)
	}

	if fingerprint != nil {
		switch {
		case !state.Initialized():
			if initErr := state.Initialize(owner, *fingerprint, u.clock.NowUTC()); initErr != nil {
				return dto.ControllerResource{}, initErr
			}
			dirty = true
		case state.TemplateFingerprint != *fingerprint:
			return dto.ControllerResource{}, apperrors.NewPrecondition(
				"controller_template_mismatch",
				"configured template fingerprint does not match the initialized controller",
				map[string]any{
					"configured": fingerprint.String(),
					"persisted":  state.TemplateFingerprint.String(),
				},
			)
		}
	}

	if dirty {
		if saveErr := u.repository.Save(ctx, state); saveErr != nil {
			return dto.ControllerResource{}, saveErr
		}
	}

	return toControllerResource(state), nil
}
