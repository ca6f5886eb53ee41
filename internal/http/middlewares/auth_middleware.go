package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/geocoder89/projecthub/internal/actorctx"
	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// Keep this small interface so tests can fake it easily.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (auth.ActiveSession, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
	loginURL string
}

func NewAuthMiddleware(sessions SessionResolver, loginURL string) *AuthMiddleware {
	if loginURL == "" {
		loginURL = "/auth/login"
	}
	return &AuthMiddleware{sessions: sessions, loginURL: loginURL}
}

// TokenFromRequest reads the bearer header first, then the cookie.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if v, err := c.Cookie(SessionCookie); err == nil {
		return v
	}
	return ""
}

// LoadSession attaches the caller's session when the token resolves and
// otherwise lets the request through anonymously.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := m.attach(c); err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
			abortInternal(c)
			return
		}
		c.Next()
	}
}

// RequireAuth answers 401 with a login link that returns the caller to
// the page they asked for.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFromContext(c); ok {
			c.Next()
			return
		}

		ok, err := m.attach(c)
		if err != nil && !errors.Is(err, auth.ErrNotAuthenticated) {
			abortInternal(c)
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":     "not_authenticated",
					"message":  "Please log in to access this page.",
					"loginUrl": m.LoginURLFor(c.Request.URL.RequestURI()),
				},
			})
			return
		}

		c.Next()
	}
}

// LoginURLFor builds the login link with next=path.
func (m *AuthMiddleware) LoginURLFor(path string) string {
	return m.loginURL + "?" + url.Values{"next": {path}}.Encode()
}

func (m *AuthMiddleware) attach(c *gin.Context) (bool, error) {
	raw := TokenFromRequest(c)
	if raw == "" {
		return false, nil
	}

	s, err := m.sessions.Resolve(c.Request.Context(), raw)
	if err != nil {
		return false, err
	}

	c.Set(CtxSession, s)
	c.Set(CtxToken, raw)
	c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
		UserID:    s.UserID,
		SessionID: s.ID,
		Moderator: s.Moderator,
	}))
	return true, nil
}

func SessionFromContext(c *gin.Context) (auth.ActiveSession, bool) {
	v, ok := c.Get(CtxSession)
	if !ok {
		return auth.ActiveSession{}, false
	}
	s, ok := v.(auth.ActiveSession)
	return s, ok && s.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	s, ok := SessionFromContext(c)
	return s.UserID, ok
}

func abortInternal(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "internal_error",
			"message": "Could not verify session",
		},
	})
}
