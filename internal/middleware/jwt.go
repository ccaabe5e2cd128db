package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/alumni-directory/internal/models"
	appErrors "github.com/noah-isme/alumni-directory/pkg/errors"
	"github.com/noah-isme/alumni-directory/pkg/response"
)

const (
	// ContextViewerKey is the gin context key storing JWT claims.
	ContextViewerKey = "currentViewer"
	// SessionCookie carries the token issued by a browser login.
	SessionCookie = "directory_session"
	// LoginPath is where unauthenticated page navigations are sent.
	LoginPath = "/login"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.ViewerClaims, error)
}

// JWT protects routes by requiring a valid token, read from the Authorization
// header or, failing that, the session cookie.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c)
		if err == nil {
			var claims *models.ViewerClaims
			if claims, err = auth.ValidateToken(token); err == nil {
				c.Set(ContextViewerKey, claims)
				c.Next()
				return
			}
		}

		if wantsPage(c.Request) {
			c.Redirect(http.StatusSeeOther, LoginPath)
			c.Abort()
			return
		}
		response.Error(c, err)
		c.Abort()
	}
}

func extractToken(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", appErrors.ErrUnauthorized
}

// wantsPage reports a top-level browser navigation rather than an API call.
func wantsPage(r *http.Request) bool {
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

// CurrentViewer returns the claims attached by JWT, if any.
func CurrentViewer(c *gin.Context) (*models.ViewerClaims, bool) {
	value, exists := c.Get(ContextViewerKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.ViewerClaims)
	return claims, ok
}
