package main

import (
	"strings"

	"invoicesweep/internal/adapters/outbound/derivation/create2"
	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

type verifyInput struct {
	ControllerAddress   string
	TemplateFingerprint string
	UserID              string
	ExpectedAddress     string
}

type verifyResult struct {
	Match               bool   `json:"match"`
	ControllerAddress   string `json:"controller_address"`
	TemplateFingerprint string `json:"template_fingerprint"`
	UserID              string `json:"user_id"`
	ExpectedAddress     string `json:"expected_address"`
	DerivedAddress      string `json:"derived_address"`
	Reason              string `json:"reason,omitempty"`
	ErrorCode           string `json:"error_code,omitempty"`
}

func newVerifyCommand() *cobra.Command {
	var input verifyInput

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that a deposit address matches its CREATE2 derivation",
		Long:  "Exit code 0 on match, 2 on invalid input, 3 on mismatch.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, exitCode := verifyDerivation(input)
			if err := writeJSON(cmd, result); err != nil {
				return &exitError{code: 2}
			}
			if exitCode != 0 {
				return &exitError{code: exitCode}
			}
			return nil
		},
	}
	cmd.SilenceErrors = true

	cmd.Flags().StringVar(&input.ControllerAddress, "controller", "", "controller (CREATE2 deployer) address")
	cmd.Flags().StringVar(&input.TemplateFingerprint, "fingerprint", "", "template fingerprint (0x + 64 hex)")
	cmd.Flags().StringVar(&input.UserID, "user-id", "", "32-byte user id")
	cmd.Flags().StringVar(&input.ExpectedAddress, "expected-address", "", "address to check")
	return cmd
}

func verifyDerivation(input verifyInput) (verifyResult, int) {
	result := verifyResult{
		ControllerAddress:   strings.TrimSpace(input.ControllerAddress),
		TemplateFingerprint: strings.TrimSpace(input.TemplateFingerprint),
		UserID:              strings.TrimSpace(input.UserID),
		ExpectedAddress:     strings.TrimSpace(input.ExpectedAddress),
	}

	if result.ControllerAddress == "" || result.TemplateFingerprint == "" || result.UserID == "" || result.ExpectedAddress == "" {
		result.Reason = "missing required fields: controller, fingerprint, user-id, expected-address"
		result.ErrorCode = "invalid_input"
		return result, 2
	}

	controller, appErr := valueobjects.ParseNonZeroAddress("controller", result.ControllerAddress)
	if appErr != nil {
		return invalid(result, appErr.Code, appErr.Message)
	}
	fingerprint, appErr := valueobjects.ParseTemplateFingerprint(result.TemplateFingerprint)
	if appErr != nil {
		return invalid(result, appErr.Code, appErr.Message)
	}
	userID, appErr := valueobjects.ParseUserID(result.UserID)
	if appErr != nil {
		return invalid(result, appErr.Code, appErr.Message)
	}
	if !common.IsHexAddress(result.ExpectedAddress) {
		return invalid(result, "invalid_input", "expected-address must be a 0x-prefixed 20-byte address")
	}

	derived := create2.Derive(controller, fingerprint, userID)
	result.DerivedAddress = valueobjects.FormatAddress(derived)

	if derived != common.HexToAddress(result.ExpectedAddress) {
		result.Reason = "derived address does not match expected address"
		result.ErrorCode = "address_mismatch"
		return result, 3
	}

	result.Match = true
	return result, 0
}

func invalid(result verifyResult, code string, reason string) (verifyResult, int) {
	result.ErrorCode = code
	result.Reason = reason
	return result, 2
}
