package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

type ContactModule struct {
	Handler *handlers.ContactHandler
	Common
}

func NewContactModule(h *handlers.ContactHandler, common Common) *ContactModule {
	return &ContactModule{Handler: h, Common: common}
}

func (m *ContactModule) Register(rg *gin.RouterGroup) {
	rg.POST("/contact", m.limit(m.Cfg.ContactRateLimit, middleware.KeyByIPAndPath()), m.Handler.Send)
}
