package valueobjects

import (
	"regexp"
	"strings"

	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

var evmAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAddress accepts a 0x-prefixed 20-byte hex address in any letter case.
// Mixed-case input must carry a valid EIP-55 checksum.
func ParseAddress(field, raw string) (common.Address, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return common.Address{}, apperrors.NewValidation(
			"invalid_request",
			field+" is required",
			map[string]any{"field": field},
		)
	}

	if !evmAddressPattern.MatchString(trimmed) {
		return common.Address{}, apperrors.NewValidation(
			"invalid_request",
			field+" is not a valid address",
			map[string]any{"field": field},
		)
	}

	address := common.HexToAddress(trimmed)
	hexPart := strings.TrimPrefix(trimmed, "0x")
	if hexPart != strings.ToLower(hexPart) && hexPart != strings.ToUpper(hexPart) && address.Hex() != trimmed {
		return common.Address{}, apperrors.NewValidation(
			"invalid_request",
			field+" has an invalid checksum",
			map[string]any{"field": field},
		)
	}

	return address, nil
}

func ParseNonZeroAddress(field, raw string) (common.Address, *apperrors.AppError) {
	address, appErr := ParseAddress(field, raw)
	if appErr != nil {
		return common.Address{}, appErr
	}
	if address == (common.Address{}) {
		return common.Address{}, apperrors.NewValidation(
			"invalid_request",
			field+" must not be the zero address",
			map[string]any{"field": field},
		)
	}

	return address, nil
}

// CanonicalAddress is the lowercase storage form.
func CanonicalAddress(address common.Address) string {
	return strings.ToLower(address.Hex())
}

// FormatAddress is the EIP-55 response form.
func FormatAddress(address common.Address) string {
	return address.Hex()
}
