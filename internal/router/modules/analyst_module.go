package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

type AnalystModule struct {
	Handler *handlers.AnalystHandler
	Common
}

func NewAnalystModule(h *handlers.AnalystHandler, common Common) *AnalystModule {
	return &AnalystModule{Handler: h, Common: common}
}

func (m *AnalystModule) Register(rg *gin.RouterGroup) {
	auth := m.protected(rg, middleware.RequireRole(entity.RoleAnalyst))
	{
		auth.GET("/analyst/stats", m.Handler.Stats)
		auth.GET("/analyst/loans", m.Handler.List)
		auth.GET("/analyst/loans/:id", m.Handler.Get)
		auth.POST("/analyst/loans/:id/review", m.Handler.Review)
	}
}
