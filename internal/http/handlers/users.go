package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/projecthub/internal/association"
	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type UserStore interface {
	GetUser(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, req user.UpdateProfileRequest) (user.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Roster is the association manager as the handlers see it.
type Roster interface {
	AddMember(ctx context.Context, projectID, userID string) (association.Delta, error)
	AddMembers(ctx context.Context, projectID string, userIDs []string) (association.BulkResult, error)
	RemoveMember(ctx context.Context, projectID, userID string) (association.Delta, error)
	SetSkillSlot(ctx context.Context, userID string, slot int, skillID string, proficiency int) (user.User, error)
	Members(ctx context.Context, projectID string) ([]user.User, error)
	ProjectsOf(ctx context.Context, userID string) ([]project.Project, error)
}

type UsersHandler struct {
	users  UserStore
	roster Roster
}

func NewUsersHandler(users UserStore, roster Roster) *UsersHandler {
	return &UsersHandler{users: users, roster: roster}
}

type profileResponse struct {
	User     user.User         `json:"user"`
	Projects []project.Project `json:"projects"`
}

type SetSkillRequest struct {
	SkillID string `json:"skillId" binding:"required"`
	// range checked by the association manager so it maps to 422
	Proficiency int `json:"proficiency"`
}

func (h *UsersHandler) profile(ctx *gin.Context, id string) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.GetUser(cctx, id)
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch user")
		return
	}

	projects, err := h.roster.ProjectsOf(cctx, id)
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch user projects")
		return
	}

	ctx.JSON(http.StatusOK, profileResponse{User: u, Projects: projects})
}

func (h *UsersHandler) Me(ctx *gin.Context) {
	uid, _ := middlewares.UserIDFromContext(ctx)
	h.profile(ctx, uid)
}

func (h *UsersHandler) GetUser(ctx *gin.Context) {
	h.profile(ctx, ctx.Param("id"))
}

func (h *UsersHandler) UpdateMe(ctx *gin.Context) {
	var req user.UpdateProfileRequest
	if !BindJSON(ctx, &req) {
		return
	}

	uid, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	u, err := h.users.UpdateProfile(cctx, uid, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// SetMySkill writes one of the caller's three skill slots.
func (h *UsersHandler) SetMySkill(ctx *gin.Context) {
	slot, err := strconv.Atoi(ctx.Param("slot"))
	if err != nil {
		RespondDomainError(ctx, user.ErrInvalidSlot, "")
		return
	}

	var req SetSkillRequest
	if !BindJSON(ctx, &req) {
		return
	}

	uid, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	u, err := h.roster.SetSkillSlot(cctx, uid, slot, req.SkillID, req.Proficiency)
	if err != nil {
		RespondDomainError(ctx, err, "Could not update skill")
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	if err := h.users.DeleteUser(cctx, ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}
