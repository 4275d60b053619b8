package app

import (
	"net/http"

	"neighborly/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"
)

// RequestID reuses the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// ErrorHandler renders the last handler error as {success:false, message}.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		e := apperr.From(c.Errors.Last().Err)
		fields := []zap.Field{
			zap.String("kind", string(e.Kind)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", c.GetString(RequestIDContextKey)),
		}
		if e.Kind == apperr.KindInternal {
			logger.Error("request failed", append(fields, zap.Error(e.Err))...)
		} else {
			logger.Debug("request rejected", append(fields, zap.String("message", e.Message))...)
		}
		c.JSON(e.HTTPStatus(), H{"success": false, "message": e.Message})
	}
}

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("request_id", c.GetString(RequestIDContextKey)),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, H{"success": false, "message": "Internal server error"})
	})
}
