package valueobjects

import (
	"strings"

	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

const (
	AssetKindNative = "native"
	AssetKindToken  = "token"
)

// AssetType is either the native currency (zero-address sentinel) or a
// fungible token identified by its contract address.
type AssetType struct {
	Token common.Address
}

var NativeAsset = AssetType{}

func TokenAsset(contract common.Address) AssetType {
	return AssetType{Token: contract}
}

// ParseAssetType accepts "native", "eth" or the zero address for the native
// currency and any other address for a token.
func ParseAssetType(raw string) (AssetType, *apperrors.AppError) {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "native", "eth":
		return NativeAsset, nil
	}

	address, appErr := ParseAddress("asset_type", trimmed)
	if appErr != nil {
		return AssetType{}, apperrors.NewValidation(
			"asset_type_invalid",
			"asset_type must be \"native\" or a token contract address",
			map[string]any{"asset_type": raw},
		)
	}

	return AssetType{Token: address}, nil
}

func (a AssetType) IsNative() bool {
	return a.Token == (common.Address{})
}

func (a AssetType) Kind() string {
	if a.IsNative() {
		return AssetKindNative
	}
	return AssetKindToken
}

// Key is the storage identity; the native sentinel is the zero address.
func (a AssetType) Key() string {
	return CanonicalAddress(a.Token)
}

func (a AssetType) String() string {
	if a.IsNative() {
		return AssetKindNative
	}
	return FormatAddress(a.Token)
}

// SweepAssetSet returns native first followed by the distinct token types of
// requested, preserving request order. The native currency is always swept.
func SweepAssetSet(requested []AssetType) []AssetType {
	out := make([]AssetType, 0, len(requested)+1)
	out = append(out, NativeAsset)
	seen := map[AssetType]struct{}{NativeAsset: {}}
	for _, asset := range requested {
		if _, exists := seen[asset]; exists {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, asset)
	}

	return out
}
