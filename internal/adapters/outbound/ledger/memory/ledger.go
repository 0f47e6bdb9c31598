package memory

import (
	"context"
	"math/big"
	"sync"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

type balanceKey struct {
	asset  valueobjects.AssetType
	holder common.Address
}

// Ledger is an in-process asset provider. Atomic runs one transaction at a
// time against a staged copy and publishes it only when fn succeeds.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]*big.Int
	batches  map[string]dto.SweepBatchRecord
}

var (
	_ portsout.AssetLedger         = (*Ledger)(nil)
	_ portsout.SweepBatchReadModel = (*Ledger)(nil)
)

func NewLedger() *Ledger {
	return &Ledger{
		balances: map[balanceKey]*big.Int{},
		batches:  map[string]dto.SweepBatchRecord{},
	}
}

func (l *Ledger) BalanceOf(_ context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balanceLocked(asset, holder), nil
}

func (l *Ledger) BalancesOf(_ context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*big.Int, 0, len(holders))
	for _, holder := range holders {
		out = append(out, l.balanceLocked(asset, holder))
	}
	return out, nil
}

func (l *Ledger) Credit(_ context.Context, asset valueobjects.AssetType, holder common.Address, amount *big.Int) (*big.Int, *apperrors.AppError) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, apperrors.NewValidation(
			"invalid_request",
			"amount must be greater than zero",
			map[string]any{"field": "amount"},
		)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := balanceKey{asset: asset, holder: holder}
	next := new(big.Int).Add(l.balanceLocked(asset, holder), amount)
	l.balances[key] = next
	return new(big.Int).Set(next), nil
}

func (l *Ledger) Atomic(ctx context.Context, fn func(tx portsout.AssetLedgerTx) *apperrors.AppError) *apperrors.AppError {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx := &ledgerTx{
		ledger:  l,
		staged:  map[balanceKey]*big.Int{},
		batches: map[string]dto.SweepBatchRecord{},
	}
	if appErr := fn(tx); appErr != nil {
		return appErr
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewInternal(
			"ledger_transaction_aborted",
			"ledger transaction aborted",
			map[string]any{"error": err.Error()},
		)
	}

	for key, balance := range tx.staged {
		if balance.Sign() == 0 {
			delete(l.balances, key)
			continue
		}
		l.balances[key] = balance
	}
	for id, record := range tx.batches {
		l.batches[id] = record
	}
	return nil
}

func (l *Ledger) GetByID(_ context.Context, id string) (dto.SweepBatchRecord, bool, *apperrors.AppError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, found := l.batches[id]
	return record, found, nil
}

func (l *Ledger) balanceLocked(asset valueobjects.AssetType, holder common.Address) *big.Int {
	balance, found := l.balances[balanceKey{asset: asset, holder: holder}]
	if !found {
		return new(big.Int)
	}
	return new(big.Int).Set(balance)
}

type ledgerTx struct {
	ledger  *Ledger
	staged  map[balanceKey]*big.Int
	batches map[string]dto.SweepBatchRecord
}

func (t *ledgerTx) balance(key balanceKey) *big.Int {
	if staged, found := t.staged[key]; found {
		return new(big.Int).Set(staged)
	}
	return t.ledger.balanceLocked(key.asset, key.holder)
}

func (t *ledgerTx) BalanceOf(_ context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError) {
	return t.balance(balanceKey{asset: asset, holder: holder}), nil
}

func (t *ledgerTx) BalancesOf(_ context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError) {
	out := make([]*big.Int, 0, len(holders))
	for _, holder := range holders {
		out = append(out, t.balance(balanceKey{asset: asset, holder: holder}))
	}
	return out, nil
}

func (t *ledgerTx) Transfer(_ context.Context, transfer dto.LedgerTransfer) *apperrors.AppError {
	if transfer.Amount == nil || transfer.Amount.Sign() == 0 {
		return nil
	}
	if transfer.Amount.Sign() < 0 {
		return apperrors.NewValidation(
			"ledger_transfer_amount_invalid",
			"transfer amount must not be negative",
			map[string]any{"amount": transfer.Amount.String()},
		)
	}

	fromKey := balanceKey{asset: transfer.Asset, holder: transfer.From}
	toKey := balanceKey{asset: transfer.Asset, holder: transfer.To}
	fromBalance := t.balance(fromKey)
	if fromBalance.Cmp(transfer.Amount) < 0 {
		return apperrors.NewConflict(
			"ledger_insufficient_balance",
			"holder balance is lower than the transfer amount",
			map[string]any{
				"asset":   transfer.Asset.String(),
				"holder":  valueobjects.FormatAddress(transfer.From),
				"balance": fromBalance.String(),
				"amount":  transfer.Amount.String(),
			},
		)
	}

	t.staged[fromKey] = fromBalance.Sub(fromBalance, transfer.Amount)
	toBalance := t.balance(toKey)
	t.staged[toKey] = toBalance.Add(toBalance, transfer.Amount)
	return nil
}

func (t *ledgerTx) TransferBatch(ctx context.Context, transfers []dto.LedgerTransfer) *apperrors.AppError {
	for _, transfer := range transfers {
		if appErr := t.Transfer(ctx, transfer); appErr != nil {
			return appErr
		}
	}
	return nil
}

func (t *ledgerTx) RecordSweepBatch(_ context.Context, record dto.SweepBatchRecord) *apperrors.AppError {
	if _, exists := t.ledger.batches[record.ID]; exists {
		return apperrors.NewConflict(
			"sweep_batch_duplicate",
			"sweep batch id already recorded",
			map[string]any{"id": record.ID},
		)
	}
	if _, exists := t.batches[record.ID]; exists {
		return apperrors.NewConflict(
			"sweep_batch_duplicate",
			"sweep batch id already recorded",
			map[string]any{"id": record.ID},
		)
	}

	t.batches[record.ID] = record
	return nil
}
