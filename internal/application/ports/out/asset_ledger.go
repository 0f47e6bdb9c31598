package out

import (
	"context"
	"math/big"

	"invoicesweep/internal/application/dto"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

type AssetBalanceReader interface {
	BalanceOf(ctx context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError)
	// BalancesOf returns one balance per holder, in holder order.
	BalancesOf(ctx context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError)
}

// AssetLedger is the asset provider. Atomic commits every effect of fn or
// none of them.
type AssetLedger interface {
	AssetBalanceReader
	Atomic(ctx context.Context, fn func(tx AssetLedgerTx) *apperrors.AppError) *apperrors.AppError
	Credit(ctx context.Context, asset valueobjects.AssetType, holder common.Address, amount *big.Int) (*big.Int, *apperrors.AppError)
}

type AssetLedgerTx interface {
	AssetBalanceReader
	Transfer(ctx context.Context, transfer dto.LedgerTransfer) *apperrors.AppError
	TransferBatch(ctx context.Context, transfers []dto.LedgerTransfer) *apperrors.AppError
	RecordSweepBatch(ctx context.Context, record dto.SweepBatchRecord) *apperrors.AppError
}
