package use_cases

import (
	"context"
	"math/big"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/policies"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

// subAccount pairs a user id with its derived deposit address.
type subAccount struct {
	UserID  valueobjects.UserID
	Address common.Address
}

// subAccountSweeper moves the full balance of each requested asset out of
// a sub-account. It keeps no state between calls and only acts when the
// caller is the controller identity.
type subAccountSweeper struct {
	controller common.Address
}

func newSubAccountSweeper(controller common.Address) subAccountSweeper {
	return subAccountSweeper{controller: controller}
}

// Sweep reads and transfers one asset at a time.
func (s subAccountSweeper) Sweep(
	ctx context.Context,
	tx portsout.AssetLedgerTx,
	caller common.Address,
	account subAccount,
	assets []valueobjects.AssetType,
	routing dto.SweepRouting,
) ([]dto.SweepTransfer, *apperrors.AppError) {
	if appErr := policies.RequireControllerCaller(caller, s.controller); appErr != nil {
		return nil, appErr
	}

	transfers := make([]dto.SweepTransfer, 0, len(assets))
	for _, asset := range assets {
		balance, appErr := tx.BalanceOf(ctx, asset, account.Address)
		if appErr != nil {
			return nil, appErr
		}
		if balance == nil || balance.Sign() <= 0 {
			continue
		}

		transfer := dto.LedgerTransfer{
			Asset:  asset,
			From:   account.Address,
			To:     routing.ReceiverFor(asset),
			Amount: new(big.Int).Set(balance),
		}
		if appErr := tx.Transfer(ctx, transfer); appErr != nil {
			return nil, appErr
		}
		transfers = append(transfers, dto.SweepTransfer{UserID: account.UserID, LedgerTransfer: transfer})
	}

	return transfers, nil
}

// SweepBatch produces the same transfers as calling Sweep for every account
// in order, using one bulk read per asset and a single bulk apply.
func (s subAccountSweeper) SweepBatch(
	ctx context.Context,
	tx portsout.AssetLedgerTx,
	caller common.Address,
	accounts []subAccount,
	assets []valueobjects.AssetType,
	routing dto.SweepRouting,
) ([]dto.SweepTransfer, *apperrors.AppError) {
	if appErr := policies.RequireControllerCaller(caller, s.controller); appErr != nil {
		return nil, appErr
	}

	unique := make([]subAccount, 0, len(accounts))
	seen := make(map[common.Address]struct{}, len(accounts))
	for _, account := range accounts {
		if _, exists := seen[account.Address]; exists {
			continue
		}
		seen[account.Address] = struct{}{}
		unique = append(unique, account)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	holders := make([]common.Address, 0, len(unique))
	for _, account := range unique {
		holders = append(holders, account.Address)
	}

	balancesByAsset := make([][]*big.Int, len(assets))
	for index, asset := range assets {
		balances, appErr := tx.BalancesOf(ctx, asset, holders)
		if appErr != nil {
			return nil, appErr
		}
		if len(balances) != len(holders) {
			return nil, apperrors.NewInternal(
				"ledger_balance_count_mismatch",
				"ledger returned an unexpected number of balances",
				map[string]any{"expected": len(holders), "actual": len(balances)},
			)
		}
		balancesByAsset[index] = balances
	}

	transfers := make([]dto.SweepTransfer, 0, len(unique)*len(assets))
	ledgerTransfers := make([]dto.LedgerTransfer, 0, len(unique)*len(assets))
	for holderIndex, account := range unique {
		for assetIndex, asset := range assets {
			balance := balancesByAsset[assetIndex][holderIndex]
			if balance == nil || balance.Sign() <= 0 {
				continue
			}

			transfer := dto.LedgerTransfer{
				Asset:  asset,
				From:   account.Address,
				To:     routing.ReceiverFor(asset),
				Amount: new(big.Int).Set(balance),
			}
			ledgerTransfers = append(ledgerTransfers, transfer)
			transfers = append(transfers, dto.SweepTransfer{UserID: account.UserID, LedgerTransfer: transfer})
		}
	}
	if len(ledgerTransfers) == 0 {
		return transfers, nil
	}

	if appErr := tx.TransferBatch(ctx, ledgerTransfers); appErr != nil {
		return nil, appErr
	}

	return transfers, nil
}
