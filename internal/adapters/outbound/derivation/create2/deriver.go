package create2

import (
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Derive returns keccak256(0xff ++ controller ++ userID ++ fingerprint)[12:].
func Derive(controller common.Address, fingerprint valueobjects.TemplateFingerprint, userID valueobjects.UserID) common.Address {
	return crypto.CreateAddress2(controller, userID, fingerprint[:])
}

type Deriver struct{}

var _ portsout.SubAccountAddressDeriver = Deriver{}

func NewDeriver() Deriver {
	return Deriver{}
}

func (Deriver) Derive(controller common.Address, fingerprint valueobjects.TemplateFingerprint, userID valueobjects.UserID) common.Address {
	return Derive(controller, fingerprint, userID)
}
