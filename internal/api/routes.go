package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/MessageBoard/config"
	"github.com/Gopher0727/MessageBoard/internal/handler"
)

// HealthChecker is satisfied by repository.Store.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// SetupRouter 创建 gin 引擎，挂载中间件、业务路由、健康检查和静态资源
func SetupRouter(
	cfg *config.ServerConfig,
	mm *MiddlewareManager,
	messageHandler *handler.MessageHandler,
	userHandler *handler.UserHandler,
	health HealthChecker,
) *gin.Engine {
	r := gin.New()

	// 留言板前端可能部署在任意域名下
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders(TraceIDHeader)
	corsCfg.AddExposeHeaders(TraceIDHeader)

	// TraceID 最先执行，Logger 和 Recovery 的日志都能带上 trace_id
	r.Use(
		mm.TraceID(),
		mm.Logger(),
		mm.Recovery(),
		cors.New(corsCfg),
	)

	RegisterRoutes(r, messageHandler, userHandler)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if health == nil || health.Ping(ctx) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if cfg != nil && cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}

	return r
}
