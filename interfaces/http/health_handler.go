package http

import (
	"net/http"

	"linkhub/domain/dto"
	"linkhub/usecase"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	HealthUsecase usecase.IHealthUsecase
}

func NewHealthHandler(healthUsecase usecase.IHealthUsecase) IHealthHandler {
	return &HealthHandler{HealthUsecase: healthUsecase}
}

// Healthz answers 200 while every backing service responds and 503 otherwise
func (h *HealthHandler) Healthz(c *gin.Context) {
	res := h.HealthUsecase.Check(c.Request.Context())
	status := http.StatusOK
	if res.Status != dto.HealthOK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, res)
}
