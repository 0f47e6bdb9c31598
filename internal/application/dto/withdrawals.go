package dto

import (
	"math/big"
	"time"

	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
)

type WithdrawCommand struct {
	PrincipalAddress string
	Mode             valueobjects.WithdrawMode
	UserIDs          []string
	AssetTypes       []string
	Receiver         string
	TokenReceiver    string
	EthReceiver      string
}

type WithdrawOutput struct {
	Batch SweepBatchResource `json:"batch"`
}

type GetSweepBatchQuery struct {
	ID string
}

type SweepBatchResource struct {
	ID            string                  `json:"id"`
	Mode          string                  `json:"mode"`
	Principal     string                  `json:"principal"`
	TokenReceiver string                  `json:"token_receiver"`
	EthReceiver   string                  `json:"eth_receiver"`
	UserCount     int                     `json:"user_count"`
	AssetTypes    []string                `json:"asset_types"`
	Transfers     []SweepTransferResource `json:"transfers"`
	CreatedAt     time.Time               `json:"created_at"`
}

type SweepTransferResource struct {
	UserID     string `json:"user_id"`
	SubAccount string `json:"sub_account"`
	AssetType  string `json:"asset_type"`
	Receiver   string `json:"receiver"`
	Amount     string `json:"amount"`
}

// LedgerTransfer moves Amount of Asset between two holders.
type LedgerTransfer struct {
	Asset  valueobjects.AssetType
	From   common.Address
	To     common.Address
	Amount *big.Int
}

type SweepTransfer struct {
	UserID valueobjects.UserID
	LedgerTransfer
}

// SweepRouting chooses a receiver per asset kind. Standard and in_one
// batches set both fields to the same address.
type SweepRouting struct {
	TokenReceiver common.Address
	EthReceiver   common.Address
}

func (r SweepRouting) ReceiverFor(asset valueobjects.AssetType) common.Address {
	if asset.IsNative() {
		return r.EthReceiver
	}
	return r.TokenReceiver
}

type SweepBatchRecord struct {
	ID         string
	Mode       valueobjects.WithdrawMode
	Principal  common.Address
	Routing    SweepRouting
	UserIDs    []valueobjects.UserID
	AssetTypes []valueobjects.AssetType
	Transfers  []SweepTransfer
	CreatedAt  time.Time
}
