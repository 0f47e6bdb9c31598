package controllers

import (
	"net/http"

	"invoicesweep/internal/adapters/inbound/http/principal"
	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/sirupsen/logrus"
)

type ControllerStateController struct {
	getUseCase        portsin.GetControllerUseCase
	initializeUseCase portsin.InitializeControllerUseCase
	logger            logrus.FieldLogger
}

type initializeControllerPayload struct {
	TemplateFingerprint string `json:"template_fingerprint"`
}

func NewControllerStateController(
	getUseCase portsin.GetControllerUseCase,
	initializeUseCase portsin.InitializeControllerUseCase,
	logger logrus.FieldLogger,
) *ControllerStateController {
	return &ControllerStateController{
		getUseCase:        getUseCase,
		initializeUseCase: initializeUseCase,
		logger:            logger,
	}
}

func (c *ControllerStateController) GetController(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.getUseCase.Execute(r.Context(), dto.GetControllerQuery{})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/controller method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}

func (c *ControllerStateController) Initialize(w http.ResponseWriter, r *http.Request) {
	payload := initializeControllerPayload{}
	if appErr := decodeJSONBody(r.Body, &payload); appErr != nil {
		writeAppError(w, appErr)
		return
	}

	output, appErr := c.initializeUseCase.Execute(r.Context(), dto.InitializeControllerCommand{
		PrincipalAddress:    principal.FromContext(r.Context()),
		TemplateFingerprint: payload.TemplateFingerprint,
	})
	if appErr != nil {
		c.logger.Warnf("request error path=/v1/controller/initialize method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
