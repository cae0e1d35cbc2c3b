package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "budgeting/internal/errors"
)

// RequireSystem restricts a route to the scheduler principal. It must run
// after AuthMiddleware.
func RequireSystem(systemToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if systemToken == "" {
			writeError(c, apperrors.ErrSystemNotConfigured)
			return
		}
		p, ok := GetPrincipal(c)
		if !ok {
			writeError(c, apperrors.ErrUnauthorized)
			return
		}
		if !p.IsSystem() || subtle.ConstantTimeCompare([]byte(p.Username), []byte(systemToken)) != 1 {
			writeError(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
