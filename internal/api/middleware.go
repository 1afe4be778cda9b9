package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/Gopher0727/MessageBoard/middleware/log"
)

// TraceIDHeader 请求/响应中携带 trace id 的头
const TraceIDHeader = "X-Request-ID"

type MiddlewareManager struct {
	logger *logger.Logger
}

func NewMiddlewareManager(log *logger.Logger) *MiddlewareManager {
	if log == nil {
		log = logger.NewNop()
	}
	return &MiddlewareManager{logger: log}
}

// TraceID reuses the caller's X-Request-ID or generates one, and stores it in the request context.
func (m *MiddlewareManager) TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = logger.NewTraceID()
		}
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Writer.Header().Set(TraceIDHeader, traceID)

		c.Next()
	}
}

func (m *MiddlewareManager) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}

		ctx := c.Request.Context()
		if statusCode >= 500 {
			m.logger.ErrorContext(ctx, "server error", fields...)
		} else if statusCode >= 400 {
			m.logger.WarnContext(ctx, "client error", fields...)
		} else {
			m.logger.InfoContext(ctx, "request completed", fields...)
		}
	}
}

func (m *MiddlewareManager) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.logger.ErrorContext(c.Request.Context(), "panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()

		c.Next()
	}
}
