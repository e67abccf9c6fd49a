package middleware

import (
	"net/http"
	"runtime/debug"

	"vitalwatch/models"
	"vitalwatch/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorHandler recovers panics and maps ServiceError codes onto HTTP
// statuses for errors attached to the gin context.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logrus.WithFields(logrus.Fields{
					"panic":  err,
					"stack":  string(debug.Stack()),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("Panic recovered")

				c.JSON(http.StatusInternalServerError,
					models.ErrorResponse(utils.ErrCodeInternal, "Internal server error"))
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		if svcErr, ok := utils.GetServiceError(err); ok {
			status := svcErr.StatusCode
			if status == 0 {
				status = http.StatusInternalServerError
			}
			c.JSON(status, models.ErrorResponse(svcErr.Code, svcErr.Message))
			return
		}

		logrus.Errorf("Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError,
			models.ErrorResponse(utils.ErrCodeInternal, "Internal server error"))
	}
}
