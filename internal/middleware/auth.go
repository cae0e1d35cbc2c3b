package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"budgeting/internal/client"
	apperrors "budgeting/internal/errors"
	"budgeting/internal/logger"
)

// SystemRoleID is the role carried by the scheduler principal.
const SystemRoleID = 999

const (
	userIDKey    = "userID"
	principalKey = "principal"
)

// Principal is the caller resolved from a bearer token.
type Principal struct {
	UserID   uint
	Username string
	Email    string
	RoleID   int
}

// IsSystem reports whether the principal carries the scheduler role.
func (p *Principal) IsSystem() bool {
	return p.RoleID == SystemRoleID
}

// IdentityChecker resolves a bearer token through the identity service.
type IdentityChecker interface {
	CheckAuth(ctx context.Context, token string) (*client.Identity, error)
}

// JWTClaims represents the claims of an identity-issued token.
type JWTClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	RoleID   int    `json:"role_id"`
	jwt.RegisteredClaims
}

// Authenticator resolves bearer tokens to principals. The system token is
// checked first, then locally verifiable JWTs, then the identity service.
type Authenticator struct {
	systemToken string
	jwtKey      []byte
	identity    IdentityChecker
}

// NewAuthenticator creates an Authenticator. An empty jwtSecret disables
// local JWT verification.
func NewAuthenticator(systemToken, jwtSecret string, identity IdentityChecker) *Authenticator {
	a := &Authenticator{systemToken: systemToken, identity: identity}
	if jwtSecret != "" {
		a.jwtKey = []byte(jwtSecret)
	}
	return a
}

// Authenticate resolves token to a principal.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if a.systemToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(a.systemToken)) == 1 {
		return &Principal{Username: a.systemToken, RoleID: SystemRoleID}, nil
	}

	if a.jwtKey != nil {
		if p, err := a.parseJWT(token); err == nil {
			return p, nil
		}
	}

	if a.identity == nil {
		return nil, apperrors.ErrUnauthorized
	}
	identity, err := a.identity.CheckAuth(ctx, token)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, apperrors.Wrap(apperrors.ErrProviderUnavailable, err)
	}
	return &Principal{
		UserID:   identity.ID,
		Username: identity.UserName,
		Email:    identity.Email,
		RoleID:   identity.RoleID,
	}, nil
}

func (a *Authenticator) parseJWT(tokenString string) (*Principal, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID == 0 {
		return nil, errors.New("token has no user_id")
	}
	return &Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		RoleID:   claims.RoleID,
	}, nil
}

// AuthMiddleware verifies the bearer token and sets the principal in the context
func AuthMiddleware(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			writeError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			writeError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Internal != nil {
				logger.Get().Errorw("identity check failed", "error", appErr.Internal.Error(), "path", c.Request.URL.Path)
			}
			writeError(c, err)
			return
		}

		c.Set(userIDKey, principal.UserID)
		c.Set(principalKey, principal)
		c.Next()
	}
}

// GetPrincipal returns the principal set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok
}
