package entities

import (
	"bytes"
	"sort"
	"time"

	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

// ControllerState is the single authority over sub-account sweeps: its
// address is the only caller a sweep accepts, its owner is the only
// principal allowed to mutate it or start a withdraw.
type ControllerState struct {
	ControllerAddress   common.Address
	Owner               common.Address
	TemplateFingerprint valueobjects.TemplateFingerprint
	InitializedAt       *time.Time
	Receivers           map[common.Address]struct{}
}

func NewControllerState(controllerAddress, owner common.Address) (ControllerState, *apperrors.AppError) {
	if controllerAddress == (common.Address{}) {
		return ControllerState{}, apperrors.NewPrecondition(
			"controller_address_missing",
			"controller address is required",
			nil,
		)
	}
	if owner == (common.Address{}) {
		return ControllerState{}, apperrors.NewPrecondition(
			"controller_owner_missing",
			"controller owner is required",
			nil,
		)
	}
	if owner == controllerAddress {
		return ControllerState{}, apperrors.NewPrecondition(
			"controller_owner_invalid",
			"controller owner must differ from the controller address",
			nil,
		)
	}

	return ControllerState{
		ControllerAddress: controllerAddress,
		Owner:             owner,
		Receivers:         map[common.Address]struct{}{},
	}, nil
}

func (s ControllerState) Initialized() bool {
	return s.InitializedAt != nil
}

func (s ControllerState) RequireOwner(caller common.Address) *apperrors.AppError {
	if caller != s.Owner {
		return apperrors.NewForbidden(
			"sender_not_owner",
			"Sender is not the owner",
			map[string]any{"sender": valueobjects.FormatAddress(caller)},
		)
	}

	return nil
}

func (s ControllerState) RequireInitialized() *apperrors.AppError {
	if !s.Initialized() {
		return apperrors.NewPrecondition(
			"controller_not_initialized",
			"controller template is not initialized",
			nil,
		)
	}

	return nil
}

// Initialize records the sweep template fingerprint. It succeeds once.
func (s *ControllerState) Initialize(caller common.Address, fingerprint valueobjects.TemplateFingerprint, now time.Time) *apperrors.AppError {
	if appErr := s.RequireOwner(caller); appErr != nil {
		return appErr
	}
	if fingerprint.IsZero() {
		return apperrors.NewValidation(
			"template_fingerprint_invalid",
			"template_fingerprint must not be zero",
			nil,
		)
	}
	if s.Initialized() {
		return apperrors.NewConflict(
			"controller_already_initialized",
			"controller template is already initialized",
			map[string]any{"template_fingerprint": s.TemplateFingerprint.String()},
		)
	}

	initializedAt := now.UTC()
	s.TemplateFingerprint = fingerprint
	s.InitializedAt = &initializedAt
	return nil
}

// AddReceiver reports whether the whitelist changed.
func (s *ControllerState) AddReceiver(caller, receiver common.Address) (bool, *apperrors.AppError) {
	if appErr := s.RequireOwner(caller); appErr != nil {
		return false, appErr
	}
	if receiver == (common.Address{}) {
		return false, apperrors.NewValidation(
			"invalid_request",
			"receiver must not be the zero address",
			map[string]any{"field": "address"},
		)
	}
	if s.Receivers == nil {
		s.Receivers = map[common.Address]struct{}{}
	}
	if _, exists := s.Receivers[receiver]; exists {
		return false, nil
	}

	s.Receivers[receiver] = struct{}{}
	return true, nil
}

// RemoveReceiver reports whether the whitelist changed.
func (s *ControllerState) RemoveReceiver(caller, receiver common.Address) (bool, *apperrors.AppError) {
	if appErr := s.RequireOwner(caller); appErr != nil {
		return false, appErr
	}
	if _, exists := s.Receivers[receiver]; !exists {
		return false, nil
	}

	delete(s.Receivers, receiver)
	return true, nil
}

func (s ControllerState) IsReceiverWhitelisted(receiver common.Address) bool {
	_, exists := s.Receivers[receiver]
	return exists
}

func (s ControllerState) RequireWhitelisted(receivers ...common.Address) *apperrors.AppError {
	for _, receiver := range receivers {
		if !s.IsReceiverWhitelisted(receiver) {
			return apperrors.NewForbidden(
				"receiver_not_whitelisted",
				"Receiver is not whitelisted",
				map[string]any{"receiver": valueobjects.FormatAddress(receiver)},
			)
		}
	}

	return nil
}

func (s ControllerState) ReceiverList() []common.Address {
	out := make([]common.Address, 0, len(s.Receivers))
	for receiver := range s.Receivers {
		out = append(out, receiver)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})

	return out
}

func (s ControllerState) Clone() ControllerState {
	clone := s
	if s.InitializedAt != nil {
		initializedAt := *s.InitializedAt
		clone.InitializedAt = &initializedAt
	}
	clone.Receivers = make(map[common.Address]struct{}, len(s.Receivers))
	for receiver := range s.Receivers {
		clone.Receivers[receiver] = struct{}{}
	}

	return clone
}
