package controllers

import (
	"net/http"

	"invoicesweep/internal/adapters/inbound/http/principal"
	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type ReceiversController struct {
	listUseCase   portsin.ListReceiversUseCase
	addUseCase    portsin.AddReceiverUseCase
	removeUseCase portsin.RemoveReceiverUseCase
	logger        logrus.FieldLogger
}

type addReceiverPayload struct {
	Address string `json:"address"`
}

func NewReceiversController(
	listUseCase portsin.ListReceiversUseCase,
	addUseCase portsin.AddReceiverUseCase,
	removeUseCase portsin.RemoveReceiverUseCase,
	logger logrus.FieldLogger,
) *ReceiversController {
	return &ReceiversController{
		listUseCase:   listUseCase,
		addUseCase:    addUseCase,
		removeUseCase: removeUseCase,
		logger:        logger,
	}
}

func (c *ReceiversController) ListReceivers(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.listUseCase.Execute(r.Context(), dto.ListReceiversQuery{})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/receivers method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *ReceiversController) AddReceiver(w http.ResponseWriter, r *http.Request) {
	payload := addReceiverPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.addUseCase.Execute(r.Context(), dto.AddReceiverCommand{
		PrincipalAddress: principal.FromContext(r.Context()),
		Receiver:         payload.Address,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/receivers method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	status := http.StatusOK
	if output.Changed {
		status = http.StatusCreated
	}
	writeJSON(w, status, output)
}

func (c *ReceiversController) RemoveReceiver(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.removeUseCase.Execute(r.Context(), dto.RemoveReceiverCommand{
		PrincipalAddress: principal.FromContext(r.Context()),
		Receiver:         r.PathValue("address"),
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/receivers/{address} method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
