package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit records a console mutation after the handler answered. Rejected
// requests and writes that ended the session are not recorded.
func Audit(logger *zap.Logger, action string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now().UTC()
		var actor, system string
		if sess := SessionFromContext(c); sess != nil {
			actor, system = sess.Email, sess.SystemID
		}

		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}
		if sess := SessionFromContext(c); sess == nil || sess.Token == "" {
			return
		}

		fields := []zap.Field{
			zap.String("action", action),
			zap.String("actor", actor),
			zap.String("system", system),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.GetHeader("User-Agent")),
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, zap.String("resource_id", id))
		}
		if flash := SessionFromContext(c).Flash; flash != nil {
			fields = append(fields, zap.String("outcome", string(flash.Kind)))
		}
		audit.Info("console_write", fields...)
	}
}
