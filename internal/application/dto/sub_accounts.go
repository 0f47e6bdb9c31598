package dto

import (
	"time"

	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
)

type ComputeAddressQuery struct {
	UserID string
}

type ComputeAddressOutput struct {
	UserID              string `json:"user_id"`
	Address             string `json:"address"`
	ControllerAddress   string `json:"controller_address"`
	TemplateFingerprint string `json:"template_fingerprint"`
}

type RegisterSubAccountsCommand struct {
	PrincipalAddress string
	UserIDs          []string
}

type RegisterSubAccountsOutput struct {
	Registered  int                  `json:"registered"`
	SubAccounts []SubAccountResource `json:"sub_accounts"`
}

type ListSubAccountsQuery struct{}

type ListSubAccountsOutput struct {
	SubAccounts []SubAccountResource `json:"sub_accounts"`
}

type SubAccountResource struct {
	UserID       string     `json:"user_id"`
	Address      string     `json:"address"`
	RegisteredAt time.Time  `json:"registered_at"`
	LastSweptAt  *time.Time `json:"last_swept_at,omitempty"`
}

// SubAccountRecord is the registry row. The address is a cached derivation.
type SubAccountRecord struct {
	UserID       valueobjects.UserID
	Address      common.Address
	RegisteredAt time.Time
	LastSweptAt  *time.Time
}

type SweepSubAccountCommand struct {
	CallerAddress string
	UserID        string
	AssetTypes    []string
	Receiver      string
}
