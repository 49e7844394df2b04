package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

// SimulatorModule exposes the public quote and the customer wizard.
type SimulatorModule struct {
	Handler *handlers.SimulatorHandler
	Common
}

func NewSimulatorModule(h *handlers.SimulatorHandler, common Common) *SimulatorModule {
	return &SimulatorModule{Handler: h, Common: common}
}

func (m *SimulatorModule) Register(rg *gin.RouterGroup) {
	rg.GET("/simulator/quote", m.limit(m.Cfg.QuoteRateLimit, middleware.KeyByIPAndPath()), m.Handler.Quote)

	auth := m.protected(rg, middleware.RequireRole(entity.RoleCustomer))
	{
		auth.POST("/simulator", m.Handler.Open)
		auth.GET("/simulator/:id", m.Handler.Get)
		auth.PATCH("/simulator/:id", m.Handler.Edit)
		auth.DELETE("/simulator/:id", m.Handler.Abandon)
		auth.POST("/simulator/:id/validate", m.Handler.Validate)
		auth.POST("/simulator/:id/advance", m.Handler.Advance)
		auth.POST("/simulator/:id/retreat", m.Handler.Retreat)
		auth.POST("/simulator/:id/submit", m.Handler.Submit)
	}
}
