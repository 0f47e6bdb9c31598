package use_cases

import (
	"context"
	"strings"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

const defaultDepositSource = "api"

type recordDepositUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
	ledger     portsout.AssetLedger
	metrics    portsout.SweepMetrics
}

// NewRecordDepositUseCase credits an external deposit to a holder. A deposit
// may target a raw address or a user id, which is resolved to its derived
// sub-account.
func NewRecordDepositUseCase(
	repository portsout.ControllerStateRepository,
	deriver portsout.SubAccountAddressDeriver,
	ledger portsout.AssetLedger,
	metrics portsout.SweepMetrics,
) portsin.RecordDepositUseCase {
	if metrics == nil {
		metrics = noopSweepMetrics{}
	}

	return &recordDepositUseCase{
		repository: repository,
		deriver:    deriver,
		ledger:     ledger,
		metrics:    metrics,
	}
}

func (u *recordDepositUseCase) Execute(ctx context.Context, command dto.RecordDepositCommand) (dto.RecordDepositOutput, *apperrors.AppError) {
	if u.ledger == nil {
		return dto.RecordDepositOutput{}, apperrors.NewInternal(
			"asset_ledger_missing",
			"asset ledger is required",
			nil,
		)
	}

	asset, appErr := valueobjects.ParseAssetType(command.AssetType)
	if appErr != nil {
		return dto.RecordDepositOutput{}, appErr
	}
	amount, appErr := valueobjects.ParsePositiveAmount("amount", command.Amount)
	if appErr != nil {
		return dto.RecordDepositOutput{}, appErr
	}

	rawUserID := strings.TrimSpace(command.UserID)
	rawAddress := strings.TrimSpace(command.Address)
	if (rawUserID == "") == (rawAddress == "") {
		return dto.RecordDepositOutput{}, apperrors.NewValidation(
			"invalid_request",
			"exactly one of user_id or address is required",
			map[string]any{"fields": []string{"user_id", "address"}},
		)
	}

	var holder common.Address
	if rawUserID != "" {
		userID, parseErr := valueobjects.ParseUserID(rawUserID)
		if parseErr != nil {
			return dto.RecordDepositOutput{}, parseErr
		}
		state, loadErr := loadControllerState(ctx, u.repository)
		if loadErr != nil {
			return dto.RecordDepositOutput{}, loadErr
		}
		addresses, deriveErr := deriveSubAccounts(u.deriver, state, []valueobjects.UserID{userID})
		if deriveErr != nil {
			return dto.RecordDepositOutput{}, deriveErr
		}
		holder = addresses[0]
	} else {
		holder, appErr = valueobjects.ParseNonZeroAddress("address", rawAddress)
		if appErr != nil {
			return dto.RecordDepositOutput{}, appErr
		}
	}

	balance, appErr := u.ledger.Credit(ctx, asset, holder, amount)
	if appErr != nil {
		return dto.RecordDepositOutput{}, appErr
	}

	source := strings.TrimSpace(command.Source)
	if source == "" {
		source = defaultDepositSource
	}
	u.metrics.IncDeposits(source)

	return dto.RecordDepositOutput{
		AssetType: asset.String(),
		Address:   valueobjects.FormatAddress(holder),
		Amount:    amount.String(),
		Balance:   balance.String(),
	}, nil
}
