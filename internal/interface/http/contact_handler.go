package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	"github.com/oksasatya/loan-simulator/pkg/response"
	"github.com/oksasatya/loan-simulator/pkg/validation"
)

type ContactHandler struct {
	Svc    *app.ContactService
	Logger *logrus.Logger
}

func NewContactHandler(svc *app.ContactService, logger *logrus.Logger) *ContactHandler {
	return &ContactHandler{Svc: svc, Logger: logger}
}

// Send POST /api/contact
// Field rules are applied by the service so messages come back in the form's language.
func (h *ContactHandler) Send(c *gin.Context) {
	var req simulator.ContactMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.Send(c.Request.Context(), req); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusAccepted, map[string]any{"received": true}, "message received", nil)
}
