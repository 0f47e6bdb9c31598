package use_cases

import (
	"context"
	"strings"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

func parsePrincipal(raw string) (common.Address, *apperrors.AppError) {
	if strings.TrimSpace(raw) == "" {
		return common.Address{}, apperrors.NewUnauthorized(
			"principal_missing",
			"an authenticated principal is required",
			nil,
		)
	}

	principal, appErr := valueobjects.ParseNonZeroAddress("principal", raw)
	if appErr != nil {
		return common.Address{}, apperrors.NewUnauthorized(
			"principal_invalid",
			"principal is not a valid address",
			nil,
		)
	}

	return principal, nil
}

func loadControllerState(ctx context.Context, repository portsout.ControllerStateRepository) (entities.ControllerState, *apperrors.AppError) {
	if repository == nil {
		return entities.ControllerState{}, apperrors.NewInternal(
			"controller_state_repository_missing",
			"controller state repository is required",
			nil,
		)
	}

	state, found, appErr := repository.Load(ctx)
	if appErr != nil {
		return entities.ControllerState{}, appErr
	}
	if !found {
		return entities.ControllerState{}, apperrors.NewPrecondition(
			"controller_not_configured",
			"controller identity has not been bootstrapped",
			nil,
		)
	}

	return state, nil
}

func acquireBatchLock(ctx context.Context, lock portsout.BatchLock) (func(), *apperrors.AppError) {
	if lock == nil {
		return nil, apperrors.NewInternal(
			"batch_lock_missing",
			"batch lock is required",
			nil,
		)
	}

	return lock.Acquire(ctx)
}

func formatAddresses(addresses []common.Address) []string {
	out := make([]string, 0, len(addresses))
	for _, address := range addresses {
		out = append(out, valueobjects.FormatAddress(address))
	}
	return out
}

func toControllerResource(state entities.ControllerState) dto.ControllerResource {
	resource := dto.ControllerResource{
		ControllerAddress: valueobjects.FormatAddress(state.ControllerAddress),
		OwnerAddress:      valueobjects.FormatAddress(state.Owner),
		Initialized:       state.Initialized(),
		Receivers:         formatAddresses(state.ReceiverList()),
	}
	if state.Initialized() {
		fingerprint := state.TemplateFingerprint.String()
		initializedAt := *state.InitializedAt
		resource.TemplateFingerprint = &fingerprint
		resource.InitializedAt = &initializedAt
	}

	return resource
}

func deriveSubAccounts(
	deriver portsout.SubAccountAddressDeriver,
	state entities.ControllerState,
	userIDs []valueobjects.UserID,
) ([]common.Address, *apperrors.AppError) {
	if deriver == nil {
		return nil, apperrors.NewInternal(
			"sub_account_address_deriver_missing",
			"sub-account address deriver is required",
			nil,
		)
	}
	if appErr := state.RequireInitialized(); appErr != nil {
		return nil, appErr
	}

	addresses := make([]common.Address, 0, len(userIDs))
	for _, userID := range userIDs {
		addresses = append(addresses, deriver.Derive(state.ControllerAddress, state.TemplateFingerprint, userID))
	}

	return addresses, nil
}

func parseAssetTypes(raw []string) ([]valueobjects.AssetType, *apperrors.AppError) {
	assets := make([]valueobjects.AssetType, 0, len(raw))
	for index, value := range raw {
		asset, appErr := valueobjects.ParseAssetType(value)
		if appErr != nil {
			appErr.Details["index"] = index
			return nil, appErr
		}
		assets = append(assets, asset)
	}

	return assets, nil
}
