package subaccount

import (
	"bytes"
	"sort"

	"invoicesweep/internal/application/dto"
)

// UPDATE ... RETURNING does not preserve the candidate order.
func sortClaimed(records []dto.SubAccountRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		left, right := records[i], records[j]
		switch {
		case left.LastSweptAt == nil && right.LastSweptAt != nil:
			return true
		case left.LastSweptAt != nil && right.LastSweptAt == nil:
			return false
		case left.LastSweptAt != nil && !left.LastSweptAt.Equal(*right.LastSweptAt):
			return left.LastSweptAt.Before(*right.LastSweptAt)
		}
		if !left.RegisteredAt.Equal(right.RegisteredAt) {
			return left.RegisteredAt.Before(right.RegisteredAt)
		}
		return bytes.Compare(left.UserID[:], right.UserID[:]) < 0
	})
}
