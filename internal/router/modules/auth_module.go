package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

// AuthModule wires account routes.
// Public: POST /api/register, POST /api/login, POST /api/refresh
// Protected: POST /api/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Common
}

func NewAuthModule(h *handlers.AuthHandler, common Common) *AuthModule {
	return &AuthModule{Handler: h, Common: common}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := m.limit(m.Cfg.LoginRateLimit, middleware.KeyByIPAndPath())
	refreshLimiter := m.limit(60, middleware.KeyByIP())

	rg.POST("/register", loginLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	auth := m.protected(rg)
	auth.POST("/logout", m.Handler.Logout)
}
