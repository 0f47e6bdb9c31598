package controllers

import (
	"github.com/sirupsen/logrus"
	"net/http"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
)

type HealthController struct {
	useCase portsin.GetHealthUseCase
	logger  logrus.FieldLogger
}

func NewHealthController(useCase portsin.GetHealthUseCase, logger logrus.FieldLogger) *HealthController {
	return &HealthController{
		useCase: useCase,
		logger:  logger,
	}
}

func (c *HealthController) GetHealth(w http.ResponseWriter, r *http.Request) {
	output, appErr := c.useCase.Execute(r.Context(), dto.GetHealthCommand{})
	if appErr != nil {
		c.logger.Warnf("request error path=/healthz method=%s code=%s message=%s", r.Method, appErr.Code, appErr.Message)
		writeAppError(w, appErr)
		return
	}

	writeJSON(w, http.StatusOK, output)
}
