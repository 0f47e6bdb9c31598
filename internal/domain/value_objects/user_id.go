package valueobjects

import (
	"encoding/hex"
	"strings"

	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

// UserID is the opaque 32-byte value a caller assigns to one depositor.
// Uniqueness is the caller's responsibility.
type UserID [32]byte

func ParseUserID(raw string) (UserID, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	hexPart := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if len(hexPart) != 64 || len(trimmed) != 66 {
		return UserID{}, apperrors.NewValidation(
			"user_id_invalid",
			"user_id must be 0x followed by 64 hex characters",
			map[string]any{"user_id": raw},
		)
	}

	decoded, err := hex.DecodeString(hexPart)
	if err != nil {
		return UserID{}, apperrors.NewValidation(
			"user_id_invalid",
			"user_id must be 0x followed by 64 hex characters",
			map[string]any{"user_id": raw},
		)
	}

	var id UserID
	copy(id[:], decoded)
	return id, nil
}

// ParseUserIDs keeps order and duplicates.
func ParseUserIDs(raw []string) ([]UserID, *apperrors.AppError) {
	ids := make([]UserID, 0, len(raw))
	for index, value := range raw {
		id, appErr := ParseUserID(value)
		if appErr != nil {
			appErr.Details["index"] = index
			return nil, appErr
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func (u UserID) Hash() common.Hash {
	return common.Hash(u)
}

func (u UserID) String() string {
	return "0x" + hex.EncodeToString(u[:])
}
