package policies

import apperrors "invoicesweep/internal/shared_kernel/errors"

const DefaultMaxBatchEntries = 2000

// BatchBudget bounds the number of (sub-account, asset) pairs one withdraw
// may touch.
type BatchBudget struct {
	MaxEntries int
}

func NewBatchBudget(maxEntries int) BatchBudget {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxBatchEntries
	}
	return BatchBudget{MaxEntries: maxEntries}
}

func (b BatchBudget) Check(userCount, assetCount int) *apperrors.AppError {
	entries := userCount * assetCount
	if entries > b.MaxEntries {
		return apperrors.NewResourceExhausted(
			"batch_budget_exceeded",
			"batch exceeds the maximum number of sweep entries",
			map[string]any{
				"entries":     entries,
				"max_entries": b.MaxEntries,
			},
		)
	}

	return nil
}
