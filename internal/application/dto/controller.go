package dto

import "time"

type GetControllerQuery struct{}

type BootstrapControllerCommand struct {
	ControllerAddress   string
	OwnerAddress        string
	TemplateFingerprint string
}

type InitializeControllerCommand struct {
	PrincipalAddress    string
	TemplateFingerprint string
}

type ControllerResource struct {
	ControllerAddress   string     `json:"controller_address"`
	OwnerAddress        string     `json:"owner_address"`
	Initialized         bool       `json:"initialized"`
	TemplateFingerprint *string    `json:"template_fingerprint,omitempty"`
	InitializedAt       *time.Time `json:"initialized_at,omitempty"`
	Receivers           []string   `json:"receivers"`
}

type AddReceiverCommand struct {
	PrincipalAddress string
	Receiver         string
}

type RemoveReceiverCommand struct {
	PrincipalAddress string
	Receiver         string
}

type ReceiverMutationOutput struct {
	Receiver  string   `json:"receiver"`
	Changed   bool     `json:"changed"`
	Receivers []string `json:"receivers"`
}

type ListReceiversQuery struct{}

type ListReceiversOutput struct {
	Receivers []string `json:"receivers"`
}
