package modules

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/response"
)

// DebugModule serves the health check and, when enabled, expvar and Prometheus metrics.
type DebugModule struct {
	Common
}

func NewDebugModule(common Common) *DebugModule { return &DebugModule{Common: common} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoints, rate-limited per IP
	rl := m.limit(120, middleware.KeyByIP())
	rg.GET("/health", m.health)
	if m.Cfg.DebugMetricsEnabled {
		rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
	}
	if m.Cfg.MetricsEnabled {
		rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
	}
}

// health reports 200 while Redis answers; sessions and drafts cannot work without it.
func (m *DebugModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := m.RDB.Ping(ctx).Err(); err != nil {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", gin.H{"redis": err.Error()})
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"redis": "ok"}, "healthy", nil)
}
