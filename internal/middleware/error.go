package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "budgeting/internal/errors"
	"budgeting/internal/logger"
)

// writeError aborts the request with err in the API error envelope.
// Anything that is not an AppError is reported as INTERNAL_ERROR.
func writeError(c *gin.Context, err error) {
	appErr := apperrors.ErrInternalServer
	var target *apperrors.AppError
	if errors.As(err, &target) {
		appErr = target
	}
	c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
		"error": gin.H{"code": appErr.Code, "message": appErr.Message},
	})
}

// ErrorHandler renders the last error a handler recorded with c.Error,
// unless the handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		log := logger.With("path", c.Request.URL.Path, "method", c.Request.Method)
		var appErr *apperrors.AppError
		switch {
		case errors.As(err, &appErr) && appErr.Internal != nil:
			log.Errorw("request failed", "code", appErr.Code, "internal", appErr.Internal.Error())
		case appErr == nil:
			log.Errorw("unexpected error", "error", err.Error())
		}
		writeError(c, err)
	}
}

// NoRoute answers unknown paths in the API error envelope.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		writeError(c, apperrors.WithMessage(apperrors.ErrNotFound, "Route not found"))
	}
}
