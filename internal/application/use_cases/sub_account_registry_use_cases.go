package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type registerSubAccountsUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
	registry   portsout.SubAccountRegistry
	clock      Clock
}

func NewRegisterSubAccountsUseCase(
	repository portsout.ControllerStateRepository,
	deriver portsout.SubAccountAddressDeriver,
	registry portsout.SubAccountRegistry,
	clock Clock,
) portsin.RegisterSubAccountsUseCase {
	if clock == nil {
		clock = NewSystemClock()
	}

	return &registerSubAccountsUseCase{
		repository: repository,
		deriver:    deriver,
		registry:   registry,
		clock:      clock,
	}
}

func (u *registerSubAccountsUseCase) Execute(ctx context.Context, command dto.RegisterSubAccountsCommand) (dto.RegisterSubAccountsOutput, *apperrors.AppError) {
	if u.registry == nil {
		return dto.RegisterSubAccountsOutput{}, apperrors.NewInternal(
			"sub_account_registry_missing",
			"sub-account registry is required",
			nil,
		)
	}

	principal, appErr := parsePrincipal(command.PrincipalAddress)
	if appErr != nil {
		return dto.RegisterSubAccountsOutput{}, appErr
	}
	userIDs, appErr := valueobjects.ParseUserIDs(command.UserIDs)
	if appErr != nil {
		return dto.RegisterSubAccountsOutput{}, appErr
	}
	if len(userIDs) == 0 {
		return dto.RegisterSubAccountsOutput{}, apperrors.NewValidation(
			"invalid_request",
			"user_ids must not be empty",
			map[string]any{"field": "user_ids"},
		)
	}

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.RegisterSubAccountsOutput{}, appErr
	}
	if ownerErr := state.RequireOwner(principal); ownerErr != nil {
		return dto.RegisterSubAccountsOutput{}, ownerErr
	}

	addresses, appErr := deriveSubAccounts(u.deriver, state, userIDs)
	if appErr != nil {
		return dto.RegisterSubAccountsOutput{}, appErr
	}

	now := u.clock.NowUTC()
	records := make([]dto.SubAccountRecord, 0, len(userIDs))
	seen := make(map[valueobjects.UserID]struct{}, len(userIDs))
	for index, userID := range userIDs {
		if _, exists := seen[userID]; exists {
			continue
		}
		seen[userID] = struct{}{}
		records = append(records, dto.SubAccountRecord{
			UserID:       userID,
			Address:      addresses[index],
			RegisteredAt: now,
		})
	}

	registered, appErr := u.registry.Register(ctx, records)
	if appErr != nil {
		return dto.RegisterSubAccountsOutput{}, appErr
	}

	return dto.RegisterSubAccountsOutput{
		Registered:  registered,
		SubAccounts: toSubAccountResources(records),
	}, nil
}

type listSubAccountsUseCase struct {
	registry portsout.SubAccountRegistry
}

func NewListSubAccountsUseCase(registry portsout.SubAccountRegistry) portsin.ListSubAccountsUseCase {
	return &listSubAccountsUseCase{registry: registry}
}

func (u *listSubAccountsUseCase) Execute(ctx context.Context, _ dto.ListSubAccountsQuery) (dto.ListSubAccountsOutput, *apperrors.AppError) {
	if u.registry == nil {
		return dto.ListSubAccountsOutput{}, apperrors.NewInternal(
			"sub_account_registry_missing",
			"sub-account registry is required",
			nil,
		)
	}

	records, appErr := u.registry.List(ctx)
	if appErr != nil {
		return dto.ListSubAccountsOutput{}, appErr
	}

	return dto.ListSubAccountsOutput{SubAccounts: toSubAccountResources(records)}, nil
}

func toSubAccountResources(records []dto.SubAccountRecord) []dto.SubAccountResource {
	out := make([]dto.SubAccountResource, 0, len(records))
	for _, record := range records {
		out = append(out, dto.SubAccountResource{
			UserID:       record.UserID.String(),
			Address:      valueobjects.FormatAddress(record.Address),
			RegisteredAt: record.RegisteredAt,
			LastSweptAt:  record.LastSweptAt,
		})
	}
	return out
}
