package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type getControllerUseCase struct {
	repository portsout.ControllerStateRepository
}

func NewGetControllerUseCase(repository portsout.ControllerStateRepository) portsin.GetControllerUseCase {
	return &getControllerUseCase{repository: repository}
}

func (u *getControllerUseCase) Execute(ctx context.Context, _ dto.GetControllerQuery) (dto.ControllerResource, *apperrors.AppError) {
	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.ControllerResource{}, appErr
	}

	return toControllerResource(state), nil
}

type listReceiversUseCase struct {
	repository portsout.ControllerStateRepository
}

func NewListReceiversUseCase(repository portsout.ControllerStateRepository) portsin.ListReceiversUseCase {
	return &listReceiversUseCase{repository: repository}
}

func (u *listReceiversUseCase) Execute(ctx context.Context, _ dto.ListReceiversQuery) (dto.ListReceiversOutput, *apperrors.AppError) {
	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.ListReceiversOutput{}, appErr
	}

	return dto.ListReceiversOutput{Receivers: formatAddresses(state.ReceiverList())}, nil
}
