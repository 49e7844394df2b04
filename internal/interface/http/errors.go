package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	"github.com/oksasatya/loan-simulator/pkg/response"
)

// writeError maps service errors onto the API envelope.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var fe simulator.FieldErrors
	var ve *app.ValidationError
	var ie *app.FieldInputError
	switch {
	case errors.As(err, &fe):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", fe)
	case errors.As(err, &ve):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", ve.Fields)
	case errors.As(err, &ie):
		response.Error[any](c, http.StatusBadRequest, "invalid field value", map[string]string{string(ie.Field): ie.Err.Error()})
	case errors.Is(err, app.ErrDraftNotFound):
		response.Error[any](c, http.StatusNotFound, "draft not found", nil)
	case errors.Is(err, app.ErrApplicationNotFound):
		response.Error[any](c, http.StatusNotFound, "application not found", nil)
	case errors.Is(err, app.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, simulator.ErrClosed), errors.Is(err, simulator.ErrNotAtReview):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, app.ErrEmailTaken):
		response.Error[any](c, http.StatusConflict, "email already registered", map[string]string{"email": "already registered"})
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, app.ErrSessionExpired):
		response.Error[any](c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, app.ErrJustificationRequired):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", map[string]string{"justification": "is required when denying"})
	case errors.Is(err, app.ErrInvalidDecision):
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", map[string]string{"decision": "must be one of: approve, deny"})
	case errors.Is(err, app.ErrUnsupportedDocument):
		response.Error[any](c, http.StatusUnsupportedMediaType, err.Error(), nil)
	case errors.Is(err, app.ErrStorageDisabled):
		response.Error[any](c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"request_id": c.GetString(response.RequestIDKey),
			}).Error("request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

// idParam reads a numeric application id from the path.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error[any](c, http.StatusBadRequest, "invalid id", nil)
		return 0, false
	}
	return id, true
}
