package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/grownby/internal/models"
)

// PrincipalKey is the gin context key holding the authenticated caller.
const PrincipalKey = "principal"

// TokenVerifier resolves a bearer token to the caller it was issued to.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.Principal, error)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer" token.
// The envelope matches internal/errors; it is written here because that
// package depends on this one.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Missing bearer token")
			return
		}

		principal, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Debug("Bearer token rejected", map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request.URL.Path,
				})
			}
			unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller, or nil on public routes.
func GetPrincipal(c *gin.Context) *models.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*models.Principal); ok {
			return p
		}
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":       "UNAUTHORIZED",
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
