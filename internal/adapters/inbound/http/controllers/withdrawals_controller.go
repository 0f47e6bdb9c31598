package controllers

import (
	"net/http"

	"invoicesweep/internal/adapters/inbound/http/principal"
	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	valueobjects "invoicesweep/internal/domain/value_objects"

	"github.com/sirupsen/logrus"
)

type WithdrawalsController struct {
	withdrawUseCase portsin.WithdrawUseCase
	getUseCase      portsin.GetSweepBatchUseCase
	logger          logrus.FieldLogger
}

type withdrawPayload struct {
	UserIDs       []string `json:"user_ids"`
	AssetTypes    []string `json:"asset_types"`
	Receiver      string   `json:"receiver,omitempty"`
	TokenReceiver string   `json:"token_receiver,omitempty"`
	EthReceiver   string   `json:"eth_receiver,omitempty"`
}

func NewWithdrawalsController(
	withdrawUseCase portsin.WithdrawUseCase,
	getUseCase portsin.GetSweepBatchUseCase,
	logger logrus.FieldLogger,
) *WithdrawalsController {
	return &WithdrawalsController{
		withdrawUseCase: withdrawUseCase,
		getUseCase:      getUseCase,
		logger:          logger,
	}
}

func (c *WithdrawalsController) Withdraw(w http.ResponseWriter, r *http.Request) {
	c.withdraw(w, r, valueobjects.WithdrawModeStandard)
}

func (c *WithdrawalsController) WithdrawInOne(w http.ResponseWriter, r *http.Request) {
	c.withdraw(w, r, valueobjects.WithdrawModeInOne)
}

func (c *WithdrawalsController) WithdrawInTwo(w http.ResponseWriter, r *http.Request) {
	c.withdraw(w, r, valueobjects.WithdrawModeInTwo)
}

func (c *WithdrawalsController) GetWithdrawal(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.getUseCase.Execute(r.Context(), dto.GetSweepBatchQuery{ID: r.PathValue("id")})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/withdrawals/{id} method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *WithdrawalsController) withdraw(w http.ResponseWriter, r *http.Request, mode valueobjects.WithdrawMode) {
	payload := withdrawPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.withdrawUseCase.Execute(r.Context(), dto.WithdrawCommand{
		PrincipalAddress: principal.FromContext(r.Context()),
		Mode:             mode,
		UserIDs:          payload.UserIDs,
		AssetTypes:       payload.AssetTypes,
		Receiver:         payload.Receiver,
		TokenReceiver:    payload.TokenReceiver,
		EthReceiver:      payload.EthReceiver,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=%s method=%s mode=%s code=%s message=%s", r.URL.Path, r.Method, mode, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	w.Header().Set("Location", "/v1/withdrawals/"+output.Batch.ID)
	writeJSON(w, http.StatusCreated, output.Batch)
}
