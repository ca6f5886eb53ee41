package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/projecthub/internal/auth"
	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Details   any    `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get("request_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details any) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details any) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondUnauthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondUnprocessable(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnprocessableEntity, code, message, nil)
}

type domainError struct {
	err     error
	status  int
	code    string
	message string
}

// one line per failure kind; the message is what the user sees
var domainErrors = []domainError{
	{user.ErrDuplicateEmail, http.StatusConflict, "email_taken", "That email is already registered."},
	{skill.ErrDuplicateName, http.StatusConflict, "skill_exists", "A skill with that name already exists."},
	{project.ErrDuplicateName, http.StatusConflict, "project_exists", "A project with that name already exists."},
	{catalog.ErrDuplicateName, http.StatusConflict, "entry_exists", "An entry with that name already exists."},

	{user.ErrNotFound, http.StatusNotFound, "user_not_found", "No such user."},
	{skill.ErrNotFound, http.StatusNotFound, "skill_not_found", "No such skill."},
	{project.ErrNotFound, http.StatusNotFound, "project_not_found", "No such project."},
	{catalog.ErrNotFound, http.StatusNotFound, "entry_not_found", "No such entry."},
	{catalog.ErrUnknownKind, http.StatusNotFound, "not_found", "Unknown catalog."},

	{user.ErrInvalidSlot, http.StatusUnprocessableEntity, "invalid_slot", "Skill slot must be 1, 2 or 3."},
	{user.ErrInvalidProficiency, http.StatusUnprocessableEntity, "invalid_proficiency", "Proficiency must be between 1 and 5."},
	{user.ErrInvalidSkillRef, http.StatusUnprocessableEntity, "invalid_skill", "Each skill slot must name an existing skill."},
	{project.ErrInvalidDates, http.StatusUnprocessableEntity, "invalid_dates", "Target end date cannot be before the start date."},
	{user.ErrBlankName, http.StatusUnprocessableEntity, "invalid_name", "First and last name cannot be blank."},
	{skill.ErrBlankName, http.StatusUnprocessableEntity, "invalid_name", "Name cannot be blank."},
	{project.ErrBlankName, http.StatusUnprocessableEntity, "invalid_name", "Name cannot be blank."},
	{catalog.ErrBlankName, http.StatusUnprocessableEntity, "invalid_name", "Name cannot be blank."},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials", "Email/password combination invalid."},
	{auth.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated", "Please log in to access this page."},
}

// RespondDomainError maps typed failures to their status and advisory
// message. Anything unrecognised is logged and reported as a bare 500.
func RespondDomainError(ctx *gin.Context, err error, fallback string) {
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			RespondError(ctx, de.status, de.code, de.message, nil)
			return
		}
	}

	slog.Default().ErrorContext(ctx.Request.Context(), "request failed",
		"route", ctx.FullPath(),
		"request_id", requestIDFrom(ctx),
		"err", err,
	)
	RespondInternal(ctx, fallback)
}
