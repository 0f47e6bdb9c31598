package memory

import (
	"context"
	"sync"

	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type ControllerStateRepository struct {
	mu    sync.RWMutex
	state *entities.ControllerState
}

var _ portsout.ControllerStateRepository = (*ControllerStateRepository)(nil)

func NewControllerStateRepository() *ControllerStateRepository {
	return &ControllerStateRepository{}
}

func (r *ControllerStateRepository) Load(_ context.Context) (entities.ControllerState, bool, *apperrors.AppError) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.state == nil {
		return entities.ControllerState{}, false, nil
	}
	return r.state.Clone(), true, nil
}

func (r *ControllerStateRepository) Save(_ context.Context, state entities.ControllerState) *apperrors.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != nil && (r.state.ControllerAddress != state.ControllerAddress || r.state.Owner != state.Owner) {
		return apperrors.NewConflict(
			"controller_identity_immutable",
			"controller and owner identities cannot change",
			nil,
		)
	}

	saved := state.Clone()
	r.state = &saved
	return nil
}
