package valueobjects

import (
	"encoding/hex"
	"strings"

	apperrors "invoicesweep/internal/shared_kernel/errors"

	"golang.org/x/crypto/sha3"
)

// TemplateFingerprint is the keccak256 hash of the sweep template every
// sub-account address is derived from.
type TemplateFingerprint [32]byte

func ParseTemplateFingerprint(raw string) (TemplateFingerprint, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	hexPart := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	decoded, err := hex.DecodeString(hexPart)
	if err != nil || len(decoded) != 32 || len(trimmed) != 66 {
		return TemplateFingerprint{}, apperrors.NewValidation(
			"template_fingerprint_invalid",
			"template_fingerprint must be 0x followed by 64 hex characters",
			map[string]any{"template_fingerprint": raw},
		)
	}

	var fingerprint TemplateFingerprint
	copy(fingerprint[:], decoded)
	if fingerprint.IsZero() {
		return TemplateFingerprint{}, apperrors.NewValidation(
			"template_fingerprint_invalid",
			"template_fingerprint must not be zero",
			map[string]any{"template_fingerprint": raw},
		)
	}

	return fingerprint, nil
}

// FingerprintTemplate hashes raw template bytes.
func FingerprintTemplate(code []byte) TemplateFingerprint {
	hash := sha3.NewLegacyKeccak256()
	_, _ = hash.Write(code)

	var out TemplateFingerprint
	copy(out[:], hash.Sum(nil))
	return out
}

func (f TemplateFingerprint) IsZero() bool {
	return f == TemplateFingerprint{}
}

func (f TemplateFingerprint) String() string {
	return "0x" + hex.EncodeToString(f[:])
}
