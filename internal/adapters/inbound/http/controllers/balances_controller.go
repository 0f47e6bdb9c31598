package controllers

import (
	"net/http"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type BalancesController struct {
	useCase portsin.GetBalanceUseCase
	logger  logrus.FieldLogger
}

type balanceQueryPayload struct {
	UserIDs   []string `json:"user_ids"`
	AssetType string   `json:"asset_type"`
}

func NewBalancesController(useCase portsin.GetBalanceUseCase, logger logrus.FieldLogger) *BalancesController {
	return &BalancesController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *BalancesController) QueryBalance(w http.ResponseWriter, r *http.Request) {
	payload := balanceQueryPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.useCase.Execute(r.Context(), dto.GetBalanceQuery{
		UserIDs:   payload.UserIDs,
		AssetType: payload.AssetType,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/balances/query method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
