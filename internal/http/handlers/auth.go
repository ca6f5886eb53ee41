package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type Credentials interface {
	Register(ctx context.Context, req auth.RegisterRequest) (user.User, error)
	Authenticate(ctx context.Context, email, password string) (auth.Session, error)
	Login(ctx context.Context, sess auth.Session, remember bool) (auth.ActiveSession, error)
	Logout(ctx context.Context, token string) error
}

type AuthHandler struct {
	creds        Credentials
	secureCookie bool
}

func NewAuthHandler(creds Credentials, secureCookie bool) *AuthHandler {
	return &AuthHandler{creds: creds, secureCookie: secureCookie}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
	// page to return to; the query parameter wins when both are set
	Next string `json:"next"`
}

type sessionResponse struct {
	Session  auth.ActiveSession `json:"session"`
	Redirect string             `json:"redirect"`
}

// Register creates the account and logs it straight in.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req auth.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 5*time.Second)
	defer cancel()

	u, err := h.creds.Register(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create user")
		return
	}

	active, err := h.creds.Login(cctx, auth.Session{
		UserID:          u.ID,
		Email:           u.Email,
		Moderator:       u.IsModerator,
		AuthenticatedAt: time.Now().UTC(),
	}, false)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, active)

	ctx.JSON(http.StatusCreated, gin.H{
		"user":    u,
		"session": active,
	})
}

// Login authenticates and starts a session. A caller that already holds a
// live session gets it back unchanged.
func (h *AuthHandler) Login(ctx *gin.Context) {
	next := ctx.Query("next")

	if existing, ok := middlewares.SessionFromContext(ctx); ok {
		ctx.JSON(http.StatusOK, sessionResponse{Session: existing, Redirect: SafeRedirect(next)})
		return
	}

	var req LoginRequest
	if !BindJSON(ctx, &req) {
		return
	}
	if next == "" {
		next = req.Next
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	sess, err := h.creds.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		RespondDomainError(ctx, err, "Could not log in")
		return
	}

	active, err := h.creds.Login(cctx, sess, req.Remember)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create session")
		return
	}

	h.setSessionCookie(ctx, active)

	ctx.JSON(http.StatusOK, sessionResponse{Session: active, Redirect: SafeRedirect(next)})
}

// Logout always succeeds and always clears the cookie.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw := middlewares.TokenFromRequest(ctx)

	if raw != "" {
		cctx, cancel := requestContext(ctx, 3*time.Second)
		defer cancel()

		if err := h.creds.Logout(cctx, raw); err != nil {
			RespondDomainError(ctx, err, "Could not log out")
			return
		}
	}

	h.clearSessionCookie(ctx)
	ctx.Status(http.StatusNoContent)
}

// SafeRedirect keeps next only when it is a path on this site.
func SafeRedirect(next string) string {
	const home = "/"

	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return home
	}

	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return home
	}

	return next
}

// A remembered session gets a persistent cookie; otherwise the cookie
// dies with the browser.
func (h *AuthHandler) setSessionCookie(ctx *gin.Context, s auth.ActiveSession) {
	maxAge := 0
	if s.Remember {
		maxAge = int(time.Until(s.ExpiresAt).Seconds())
	}

	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(middlewares.SessionCookie, s.Token, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(middlewares.SessionCookie, "", -1, "/", "", h.secureCookie, true)
}

// requestContext bounds a handler's storage calls while keeping the
// request's trace and actor.
func requestContext(ctx *gin.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), d)
}
