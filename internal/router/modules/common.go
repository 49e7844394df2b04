package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
)

// Common carries what every module needs to guard its routes.
type Common struct {
	RDB  *redis.Client
	Auth gin.HandlerFunc
	Cfg  *config.Config
}

func (c Common) limit(n int, key middleware.KeyFunc) gin.HandlerFunc {
	return middleware.RateLimit(c.RDB, n, time.Minute, key, nil)
}

// protected returns a group behind the session check plus the per-user limiter.
func (c Common) protected(rg *gin.RouterGroup, mw ...gin.HandlerFunc) *gin.RouterGroup {
	g := rg.Group("/")
	g.Use(c.Auth)
	g.Use(
		middleware.RateLimit(c.RDB, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(c.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	g.Use(mw...)
	return g
}
