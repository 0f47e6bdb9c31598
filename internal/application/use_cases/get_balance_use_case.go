package use_cases

import (
	"context"
	"math/big"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type getBalanceUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
	reader     portsout.AssetBalanceReader
}

// NewGetBalanceUseCase sums balances over derived sub-account addresses.
// Duplicate user ids are counted once per occurrence.
func NewGetBalanceUseCase(
	repository portsout.ControllerStateRepository,
	deriver portsout.SubAccountAddressDeriver,
	reader portsout.AssetBalanceReader,
) portsin.GetBalanceUseCase {
	return &getBalanceUseCase{
		repository: repository,
		deriver:    deriver,
		reader:     reader,
	}
}

func (u *getBalanceUseCase) Execute(ctx context.Context, query dto.GetBalanceQuery) (dto.GetBalanceOutput, *apperrors.AppError) {
	if u.reader == nil {
		return dto.GetBalanceOutput{}, apperrors.NewInternal(
			"asset_balance_reader_missing",
			"asset balance reader is required",
			nil,
		)
	}

	userIDs, appErr := valueobjects.ParseUserIDs(query.UserIDs)
	if appErr != nil {
		return dto.GetBalanceOutput{}, appErr
	}
	asset, appErr := valueobjects.ParseAssetType(query.AssetType)
	if appErr != nil {
		return dto.GetBalanceOutput{}, appErr
	}

	output := dto.GetBalanceOutput{
		AssetType:   asset.String(),
		Total:       "0",
		SubAccounts: []dto.SubAccountBalance{},
	}
	if len(userIDs) == 0 {
		return output, nil
	}

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.GetBalanceOutput{}, appErr
	}
	holders, appErr := deriveSubAccounts(u.deriver, state, userIDs)
	if appErr != nil {
		return dto.GetBalanceOutput{}, appErr
	}

	balances, appErr := u.reader.BalancesOf(ctx, asset, holders)
	if appErr != nil {
		return dto.GetBalanceOutput{}, appErr
	}
	if len(balances) != len(holders) {
		return dto.GetBalanceOutput{}, apperrors.NewInternal(
			"ledger_balance_count_mismatch",
			"balance reader returned an unexpected number of balances",
			map[string]any{"expected": len(holders), "actual": len(balances)},
		)
	}

	total := new(big.Int)
	for index, holder := range holders {
		balance := balances[index]
		if balance == nil {
			balance = new(big.Int)
		}
		total.Add(total, balance)
		output.SubAccounts = append(output.SubAccounts, dto.SubAccountBalance{
			UserID:  userIDs[index].String(),
			Address: valueobjects.FormatAddress(holder),
			Balance: balance.String(),
		})
	}
	output.Total = total.String()

	return output, nil
}
