package evm

import (
	"context"
	"math/big"
	"strings"

	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20BalanceOfABI = `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`

// Client is satisfied by *ethclient.Client.
type Client interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// BalanceReader reads live balances from an EVM node at the latest block.
type BalanceReader struct {
	client Client
	erc20  abi.ABI
}

var _ portsout.AssetBalanceReader = (*BalanceReader)(nil)

func NewBalanceReader(client Client) (*BalanceReader, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20BalanceOfABI))
	if err != nil {
		return nil, err
	}
	return &BalanceReader{client: client, erc20: parsed}, nil
}

func (r *BalanceReader) BalanceOf(ctx context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError) {
	if asset.IsNative() {
		balance, err := r.client.BalanceAt(ctx, holder, nil)
		if err != nil {
			return nil, observationFailed("eth_getBalance", asset, holder, err)
		}
		return balance, nil
	}

	input, err := r.erc20.Pack("balanceOf", holder)
	if err != nil {
		return nil, observationFailed("balanceOf_pack", asset, holder, err)
	}
	token := asset.Token
	output, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
	if err != nil {
		return nil, observationFailed("eth_call", asset, holder, err)
	}

	values, err := r.erc20.Unpack("balanceOf", output)
	if err != nil || len(values) != 1 {
		return nil, observationFailed("balanceOf_unpack", asset, holder, err)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, observationFailed("balanceOf_unpack", asset, holder, nil)
	}
	return balance, nil
}

func (r *BalanceReader) BalancesOf(ctx context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError) {
	out := make([]*big.Int, 0, len(holders))
	for _, holder := range holders {
		balance, appErr := r.BalanceOf(ctx, asset, holder)
		if appErr != nil {
			return nil, appErr
		}
		out = append(out, balance)
	}
	return out, nil
}

func observationFailed(step string, asset valueobjects.AssetType, holder common.Address, err error) *apperrors.AppError {
	details := map[string]any{
		"step":       step,
		"asset_type": asset.String(),
		"holder":     valueobjects.FormatAddress(holder),
	}
	if err != nil {
		details["error"] = err.Error()
	}
	return apperrors.NewInternal(
		"chain_observation_failed",
		"failed to read balance from chain",
		details,
	)
}
