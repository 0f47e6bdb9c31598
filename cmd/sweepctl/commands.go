package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"invoicesweep/internal/adapters/inbound/http/auth"
	"invoicesweep/internal/adapters/outbound/derivation/create2"
	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type derivedAddress struct {
	UserID  string `json:"user_id"`
	Address string `json:"address"`
}

type addressResult struct {
	ControllerAddress   string           `json:"controller_address"`
	TemplateFingerprint string           `json:"template_fingerprint"`
	Addresses           []derivedAddress `json:"addresses"`
}

func newAddressCommand() *cobra.Command {
	var (
		controller  string
		fingerprint string
		userIDs     []string
	)

	cmd := &cobra.Command{
		Use:   "address",
		Short: "Derive deposit addresses for user ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			controllerAddress, appErr := valueobjects.ParseNonZeroAddress("controller", controller)
			if appErr != nil {
				return stderrors.New(appErr.Message)
			}
			parsedFingerprint, appErr := valueobjects.ParseTemplateFingerprint(fingerprint)
			if appErr != nil {
				return stderrors.New(appErr.Message)
			}
			parsedUserIDs, appErr := valueobjects.ParseUserIDs(userIDs)
			if appErr != nil {
				return stderrors.New(appErr.Message)
			}
			if len(parsedUserIDs) == 0 {
				return fmt.Errorf("at least one --user-id is required")
			}

			result := addressResult{
				ControllerAddress:   valueobjects.FormatAddress(controllerAddress),
				TemplateFingerprint: parsedFingerprint.String(),
				Addresses:           make([]derivedAddress, 0, len(parsedUserIDs)),
			}
			for _, userID := range parsedUserIDs {
				result.Addresses = append(result.Addresses, derivedAddress{
					UserID:  userID.String(),
					Address: valueobjects.FormatAddress(create2.Derive(controllerAddress, parsedFingerprint, userID)),
				})
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&controller, "controller", "", "controller (CREATE2 deployer) address")
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "template fingerprint (0x + 64 hex)")
	cmd.Flags().StringArrayVar(&userIDs, "user-id", nil, "32-byte user id (repeatable)")
	return cmd
}

type fingerprintResult struct {
	TemplateFingerprint string `json:"template_fingerprint"`
	TemplateBytes       int    `json:"template_bytes"`
}

func newFingerprintCommand() *cobra.Command {
	var (
		file    string
		rawCode string
	)

	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Compute the keccak256 fingerprint of template bytes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := readTemplate(file, rawCode)
			if err != nil {
				return err
			}
			return writeJSON(cmd, fingerprintResult{
				TemplateFingerprint: valueobjects.FingerprintTemplate(code).String(),
				TemplateBytes:       len(code),
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "file holding template bytes as 0x hex")
	cmd.Flags().StringVar(&rawCode, "code", "", "template bytes as 0x hex")
	return cmd
}

func readTemplate(file string, rawCode string) ([]byte, error) {
	switch {
	case file != "" && rawCode != "":
		return nil, fmt.Errorf("use either --file or --code, not both")
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file: %w", err)
		}
		rawCode = string(content)
	case rawCode == "":
		return nil, fmt.Errorf("one of --file or --code is required")
	}

	code, err := hexutil.Decode(strings.TrimSpace(rawCode))
	if err != nil {
		return nil, fmt.Errorf("template bytes must be 0x-prefixed hex: %w", err)
	}
	return code, nil
}

func newTokenCommand() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a principal bearer token for the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("AUTH_JWT_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or AUTH_JWT_SECRET is required")
			}
			if !common.IsHexAddress(subject) {
				return fmt.Errorf("--subject must be a 0x-prefixed 20-byte address")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, err := auth.IssueToken(secret, common.HexToAddress(subject), ttl, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults to AUTH_JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "subject", "", "principal address")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
