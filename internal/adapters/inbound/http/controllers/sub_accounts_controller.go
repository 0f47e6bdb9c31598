package controllers

import (
	"net/http"

	"invoicesweep/internal/adapters/inbound/http/principal"
	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type SubAccountsController struct {
	computeAddressUseCase portsin.ComputeAddressUseCase
	registerUseCase       portsin.RegisterSubAccountsUseCase
	listUseCase           portsin.ListSubAccountsUseCase
	sweepUseCase          portsin.SweepSubAccountUseCase
	logger                logrus.FieldLogger
}

type registerSubAccountsPayload struct {
	UserIDs []string `json:"user_ids"`
}

type sweepSubAccountPayload struct {
	AssetTypes []string `json:"asset_types"`
	Receiver   string   `json:"receiver"`
}

func NewSubAccountsController(
	computeAddressUseCase portsin.ComputeAddressUseCase,
	registerUseCase portsin.RegisterSubAccountsUseCase,
	listUseCase portsin.ListSubAccountsUseCase,
	sweepUseCase portsin.SweepSubAccountUseCase,
	logger logrus.FieldLogger,
) *SubAccountsController {
	return &SubAccountsController{
		computeAddressUseCase: computeAddressUseCase,
		registerUseCase:       registerUseCase,
		listUseCase:           listUseCase,
		sweepUseCase:          sweepUseCase,
		logger:                logger,
	}
}

func (c *SubAccountsController) ComputeAddress(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.computeAddressUseCase.Execute(r.Context(), dto.ComputeAddressQuery{
		UserID: r.PathValue("user_id"),
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/sub-accounts/{user_id}/address method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *SubAccountsController) RegisterSubAccounts(w http.ResponseWriter, r *http.Request) {
	payload := registerSubAccountsPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.registerUseCase.Execute(r.Context(), dto.RegisterSubAccountsCommand{
		PrincipalAddress: principal.FromContext(r.Context()),
		UserIDs:          payload.UserIDs,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/sub-accounts method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *SubAccountsController) ListSubAccounts(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.listUseCase.Execute(r.Context(), dto.ListSubAccountsQuery{})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/sub-accounts method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

// SweepSubAccount exposes the sub-account sweep entry point. Only the
// controller may call it, and no principal token can carry that identity.
func (c *SubAccountsController) SweepSubAccount(w http.ResponseWriter, r *http.Request) {
	payload := sweepSubAccountPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	appErr := c.sweepUseCase.Execute(r.Context(), dto.SweepSubAccountCommand{
		CallerAddress: principal.FromContext(r.Context()),
		UserID:        r.PathValue("user_id"),
		AssetTypes:    payload.AssetTypes,
		Receiver:      payload.Receiver,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/sub-accounts/{user_id}/sweep method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
