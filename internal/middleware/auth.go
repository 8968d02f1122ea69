package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/klass-lk/blogboot/internal/logging"
	"github.com/klass-lk/blogboot/internal/server"
	"github.com/klass-lk/blogboot/internal/token"
)

const (
	// ContextClaims holds the verified *token.Claims for the request.
	ContextClaims = "authClaims"
	// ContextToken holds the raw bearer token string.
	ContextToken = "authToken"
)

// extractToken reads the Authorization header, accepting the standard
// "Bearer <token>" form and, for older clients, a bare token.
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}

// RequireAuth rejects requests that do not carry a valid access token.
// Missing and expired tokens get 401 so the client knows to refresh;
// anything else about the token being wrong gets 403.
func RequireAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			logging.LogAuthAttempt(false, c.ClientIP(), c.Request.UserAgent())
			server.SendError(c, server.ErrNoToken)
			c.Abort()
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			logging.LogAuthAttempt(false, c.ClientIP(), c.Request.UserAgent())
			switch {
			case errors.Is(err, token.ErrExpired):
				server.SendError(c, server.ErrTokenExpired)
			case errors.Is(err, token.ErrMissingSecret):
				server.SendError(c, server.ErrServerConfig)
			default:
				server.SendError(c, server.ErrInvalidToken)
			}
			c.Abort()
			return
		}

		logging.LogAuthAttempt(true, c.ClientIP(), c.Request.UserAgent())
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, raw)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets the
// request through either way. Public endpoints use this to tell operator
// traffic apart from visitors.
func OptionalAuth(tokens *token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Verify(raw)
		if err != nil {
			c.Next()
			return
		}
		c.Set(ContextClaims, claims)
		c.Set(ContextToken, raw)
		c.Next()
	}
}

// ClaimsFrom returns the verified claims set by RequireAuth or OptionalAuth.
func ClaimsFrom(c *gin.Context) (*token.Claims, bool) {
	value, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*token.Claims)
	return claims, ok
}

// TokenFrom returns the raw bearer token set by RequireAuth.
func TokenFrom(c *gin.Context) (string, bool) {
	value, ok := c.Get(ContextToken)
	if !ok {
		return "", false
	}
	raw, ok := value.(string)
	return raw, ok
}
