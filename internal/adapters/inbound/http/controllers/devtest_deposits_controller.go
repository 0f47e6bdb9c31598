package controllers

import (
	"net/http"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type DevtestDepositsController struct {
	useCase portsin.RecordDepositUseCase
	logger  logrus.FieldLogger
}

type depositPayload struct {
	AssetType string `json:"asset_type"`
	UserID    string `json:"user_id,omitempty"`
	Address   string `json:"address,omitempty"`
	Amount    string `json:"amount"`
}

func NewDevtestDepositsController(useCase portsin.RecordDepositUseCase, logger logrus.FieldLogger) *DevtestDepositsController {
	return &DevtestDepositsController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *DevtestDepositsController) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	payload := depositPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.useCase.Execute(r.Context(), dto.RecordDepositCommand{
		Source:    "devtest",
		AssetType: payload.AssetType,
		UserID:    payload.UserID,
		Address:   payload.Address,
		Amount:    payload.Amount,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/devtest/deposits method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusCreated, output)
}
