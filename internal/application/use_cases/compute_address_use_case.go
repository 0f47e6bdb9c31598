package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type computeAddressUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
}

func NewComputeAddressUseCase(
	repository portsout.ControllerStateRepository,
	deriver portsout.SubAccountAddressDeriver,
) portsin.ComputeAddressUseCase {
	return &computeAddressUseCase{
		repository: repository,
		deriver:    deriver,
	}
}

func (u *computeAddressUseCase) Execute(ctx context.Context, query dto.ComputeAddressQuery) (dto.ComputeAddressOutput, *apperrors.AppError) {
	userID, appErr := valueobjects.ParseUserID(query.UserID)
	if appErr != nil {
		return dto.ComputeAddressOutput{}, appErr
	}

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.ComputeAddressOutput{}, appErr
	}
	addresses, appErr := deriveSubAccounts(u.deriver, state, []valueobjects.UserID{userID})
	if appErr != nil {
		return dto.ComputeAddressOutput{}, appErr
	}

	return dto.ComputeAddressOutput{
		UserID:              userID.String(),
		Address:             valueobjects.FormatAddress(addresses[0]),
		ControllerAddress:   valueobjects.FormatAddress(state.ControllerAddress),
		TemplateFingerprint: state.TemplateFingerprint.String(),
	}, nil
}
