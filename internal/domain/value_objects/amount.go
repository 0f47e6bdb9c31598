package valueobjects

import (
	"math/big"
	"regexp"
	"strings"

	apperrors "invoicesweep/internal/shared_kernel/errors"
)

var amountMinorPattern = regexp.MustCompile(`^[0-9]{1,78}$`)

// ParsePositiveAmount parses a base-unit integer string (wei, token minor units).
func ParsePositiveAmount(field, raw string) (*big.Int, *apperrors.AppError) {
	value := strings.TrimSpace(raw)
	if !amountMinorPattern.MatchString(value) {
		return nil, apperrors.NewValidation(
			"invalid_request",
			field+" must be an integer string with 1 to 78 digits",
			map[string]any{"field": field},
		)
	}

	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, apperrors.NewValidation(
			"invalid_request",
			field+" must be greater than zero",
			map[string]any{"field": field},
		)
	}

	return amount, nil
}
