package out

import (
	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
)

// SubAccountAddressDeriver maps a user id to its deposit address. It is a
// pure function of its inputs.
type SubAccountAddressDeriver interface {
	Derive(controller common.Address, fingerprint valueobjects.TemplateFingerprint, userID valueobjects.UserID) common.Address
}
