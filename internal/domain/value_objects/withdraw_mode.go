package valueobjects

import apperrors "invoicesweep/internal/shared_kernel/errors"

type WithdrawMode string

const (
	// WithdrawModeStandard sweeps sub-accounts one by one to a single receiver.
	WithdrawModeStandard WithdrawMode = "standard"
	// WithdrawModeInOne sweeps to a single receiver using bulk reads and one bulk apply.
	WithdrawModeInOne WithdrawMode = "in_one"
	// WithdrawModeInTwo routes tokens and native currency to separate receivers.
	WithdrawModeInTwo WithdrawMode = "in_two"
)

func ParseWithdrawMode(raw string) (WithdrawMode, *apperrors.AppError) {
	switch WithdrawMode(raw) {
	case WithdrawModeStandard, WithdrawModeInOne, WithdrawModeInTwo:
		return WithdrawMode(raw), nil
	default:
		return "", apperrors.NewValidation(
			"invalid_request",
			"withdraw mode is invalid",
			map[string]any{"mode": raw},
		)
	}
}

func (m WithdrawMode) String() string {
	return string(m)
}
