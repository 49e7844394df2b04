package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/response"
	"github.com/oksasatya/loan-simulator/pkg/validation"
)

type ProfileHandler struct {
	Svc    *app.Service
	Logger *logrus.Logger
}

func NewProfileHandler(svc *app.Service, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name                 *string `json:"name" binding:"omitempty,person_name"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
	CurrentPassword      string  `json:"current_password" binding:"required_with=NewPassword"`
	NewPassword          string  `json:"new_password" binding:"omitempty,strongpwd"`
	ConfirmPassword      string  `json:"confirm_password" binding:"eqfield=NewPassword"`
}

func profileView(u *entity.User) gin.H {
	return gin.H{
		"id":                    u.ID,
		"email":                 u.Email,
		"name":                  u.Name,
		"role":                  u.Role,
		"notifications_enabled": u.NotificationsEnabled,
		"created_at":            u.CreatedAt,
		"updated_at":            u.UpdatedAt,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile", nil)
}

// UpdateProfile PUT /api/profile
// Changes name, notification preference and password.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateSettings(c.Request.Context(), c.GetString(middleware.CtxUserID), app.UpdateSettingsInput{
		Name:                 req.Name,
		NotificationsEnabled: req.NotificationsEnabled,
		CurrentPassword:      req.CurrentPassword,
		NewPassword:          req.NewPassword,
	})
	if errors.Is(err, app.ErrInvalidCredentials) {
		response.Error[any](c, http.StatusUnprocessableEntity, "validation failed", map[string]string{"current_password": "is incorrect"})
		return
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, profileView(u), "profile updated", nil)
}
