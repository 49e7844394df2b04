package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/response"
	"github.com/oksasatya/loan-simulator/pkg/validation"
)

// DashboardPath is where the client navigates after a successful submission.
const DashboardPath = "/dashboard"

type SimulatorHandler struct {
	Svc    *app.LoanService
	Logger *logrus.Logger
}

func NewSimulatorHandler(svc *app.LoanService, logger *logrus.Logger) *SimulatorHandler {
	return &SimulatorHandler{Svc: svc, Logger: logger}
}

type quoteRequest struct {
	Amount       float64 `form:"amount"`
	Installments int     `form:"installments"`
}

type checkFieldRequest struct {
	Field string `json:"field" binding:"required"`
}

// Quote GET /api/simulator/quote?amount=&installments=
func (h *SimulatorHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	q, errs := h.Svc.Quote(req.Amount, req.Installments)
	if len(errs) > 0 {
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", errs)
		return
	}
	response.Success(c, http.StatusOK, q, "quote", nil)
}

func (h *SimulatorHandler) Open(c *gin.Context) {
	v, err := h.Svc.OpenDraft(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, v, "draft opened", nil)
}

func (h *SimulatorHandler) Get(c *gin.Context) {
	v, err := h.Svc.GetDraft(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, v, "draft", nil)
}

// Edit PATCH /api/simulator/:id
// Body is an object of field name to value, e.g. {"amount": 15000, "full_name": "Ana"}.
func (h *SimulatorHandler) Edit(c *gin.Context) {
	var values map[string]any
	if err := c.ShouldBindJSON(&values); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if len(values) == 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"payload": "no fields to update"})
		return
	}
	v, err := h.Svc.EditDraft(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), values)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, v, "draft updated", nil)
}

// Validate POST /api/simulator/:id/validate
// Checks one field the way the form does when it loses focus.
func (h *SimulatorHandler) Validate(c *gin.Context) {
	var req checkFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	v, err := h.Svc.CheckField(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"), simulator.Field(req.Field))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, v, "field checked", nil)
}

func (h *SimulatorHandler) Advance(c *gin.Context) {
	v, err := h.Svc.Advance(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, v, "step advanced", nil)
}

func (h *SimulatorHandler) Retreat(c *gin.Context) {
	v, err := h.Svc.Retreat(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, v, "step retreated", nil)
}

func (h *SimulatorHandler) Submit(c *gin.Context) {
	a, _, err := h.Svc.Submit(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, a, "application submitted", map[string]any{"redirect": DashboardPath})
}

// Abandon DELETE /api/simulator/:id
func (h *SimulatorHandler) Abandon(c *gin.Context) {
	if err := h.Svc.Abandon(c.Request.Context(), c.GetString(middleware.CtxUserID), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"abandoned": true}, "draft discarded", nil)
}
