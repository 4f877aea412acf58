package middleware

import (
	"time"

	"taskapi/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request once the handler chain has finished.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if p, ok := PrincipalFrom(c); ok {
			fields["user_id"] = p.UserID
		}

		entry := logging.Logger.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Event ID: HTTP_REQUEST, Description: Request failed")
		case status >= 400:
			entry.Warn("Event ID: HTTP_REQUEST, Description: Request rejected")
		default:
			entry.Info("Event ID: HTTP_REQUEST, Description: Request handled")
		}
	}
}
