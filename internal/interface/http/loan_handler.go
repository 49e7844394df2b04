package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/response"
)

// MaxDocumentSize caps income-proof uploads.
const MaxDocumentSize = 10 << 20

// LoanHandler serves the customer dashboard.
type LoanHandler struct {
	Svc    *app.LoanService
	Logger *logrus.Logger
}

func NewLoanHandler(svc *app.LoanService, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{Svc: svc, Logger: logger}
}

func (h *LoanHandler) List(c *gin.Context) {
	apps, err := h.Svc.ListMine(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, apps, "applications", map[string]any{"count": len(apps)})
}

func (h *LoanHandler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.Svc.GetMine(c.Request.Context(), c.GetString(middleware.CtxUserID), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "application", nil)
}

func (h *LoanHandler) Analysis(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	a, err := h.Svc.Analysis(c.Request.Context(), c.GetString(middleware.CtxUserID), id)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, a, "analysis", nil)
}

// UploadDocument POST /api/loans/:id/documents (multipart, field "file")
func (h *LoanHandler) UploadDocument(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxDocumentSize)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"file": "is required (max 10MB)"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	defer f.Close()

	doc, err := h.Svc.UploadDocument(c.Request.Context(), c.GetString(middleware.CtxUserID), id, fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, doc, "document uploaded", nil)
}
