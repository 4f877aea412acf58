package middleware

import (
	"errors"
	"net/http"

	"taskapi/internal/apperror"
	"taskapi/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const MsgInternal = "Internal Server Error"

// ErrorHandler renders the last error attached with c.Error as
// {success:false, message[, errors]}. Errors that are not *apperror.Error become a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.Error
		if !errors.As(err, &appErr) {
			logging.Logger.WithFields(logrus.Fields{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
			}).Errorf("Event ID: UNHANDLED_ERROR, Description: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": MsgInternal})
			return
		}

		body := gin.H{"success": false, "message": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		c.JSON(appErr.Kind.HTTPStatus(), body)
	}
}
