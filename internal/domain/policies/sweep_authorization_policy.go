package policies

import (
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

// RequireControllerCaller guards every sub-account sweep.
func RequireControllerCaller(caller, controller common.Address) *apperrors.AppError {
	if caller == (common.Address{}) || caller != controller {
		return apperrors.NewForbidden(
			"sender_not_controller",
			"Sender is not the controller",
			map[string]any{"sender": valueobjects.FormatAddress(caller)},
		)
	}

	return nil
}
