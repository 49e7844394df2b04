package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

type LoanModule struct {
	Handler *handlers.LoanHandler
	Common
}

func NewLoanModule(h *handlers.LoanHandler, common Common) *LoanModule {
	return &LoanModule{Handler: h, Common: common}
}

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	auth := m.protected(rg, middleware.RequireRole(entity.RoleCustomer))
	{
		auth.GET("/loans", m.Handler.List)
		auth.GET("/loans/:id", m.Handler.Get)
		auth.GET("/loans/:id/analysis", m.Handler.Analysis)
		auth.POST("/loans/:id/documents", m.limit(10, middleware.KeyByUserID()), m.Handler.UploadDocument)
	}
}
