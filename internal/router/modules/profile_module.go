package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
)

type ProfileModule struct {
	Handler *handlers.ProfileHandler
	Common
}

func NewProfileModule(h *handlers.ProfileHandler, common Common) *ProfileModule {
	return &ProfileModule{Handler: h, Common: common}
}

func (m *ProfileModule) Register(rg *gin.RouterGroup) {
	auth := m.protected(rg)
	auth.GET("/profile", m.Handler.GetProfile)
	auth.PUT("/profile", m.Handler.UpdateProfile)
}
