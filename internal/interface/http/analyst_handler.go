package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/response"
	"github.com/oksasatya/loan-simulator/pkg/validation"
)

type AnalystHandler struct {
	Svc    *app.AnalystService
	Logger *logrus.Logger
}

func NewAnalystHandler(svc *app.AnalystService, logger *logrus.Logger) *AnalystHandler {
	return &AnalystHandler{Svc: svc, Logger: logger}
}

type reviewRequest struct {
	Decision      string `json:"decision" binding:"required,oneof=approve deny"`
	Justification string `json:"justification" binding:"max=1000"`
}

func (h *AnalystHandler) Stats(c *gin.Context) {
	s, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, s, "stats", nil)
}

// List GET /api/analyst/loans?q=
// q matches the applicant name or CPF digits.
func (h *AnalystHandler) List(c *gin.Context) {
	q := c.Query("q")
	apps, err := h.Svc.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, apps, "applications", map[string]any{"count": len(apps), "q": q})
}

func (h *AnalystHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "analysis", nil)
}

func (h *AnalystHandler) Review(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	r, err := h.Svc.Review(c.Request.Context(), c.GetString(middleware.CtxUserID), id, entity.ReviewDecision(req.Decision), req.Justification)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, r, "review recorded", nil)
}
