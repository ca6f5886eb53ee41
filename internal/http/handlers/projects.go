package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/project"
	"github.com/geocoder89/projecthub/internal/domain/user"
	"github.com/geocoder89/projecthub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type ProjectStore interface {
	CreateProject(ctx context.Context, req project.CreateProjectRequest) (project.Project, error)
	GetProject(ctx context.Context, id string) (project.Project, error)
	ListProjects(ctx context.Context) ([]project.Project, error)
	DeleteProject(ctx context.Context, id string) error
}

type ProjectsHandler struct {
	repo   ProjectStore
	roster Roster
}

func NewProjectsHandler(repo ProjectStore, roster Roster) *ProjectsHandler {
	return &ProjectsHandler{repo: repo, roster: roster}
}

type BulkMembersRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1,max=100,dive,required"`
}

type projectResponse struct {
	project.Project
	Team []user.User `json:"team"`
}

func (h *ProjectsHandler) ListProjects(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	projects, err := h.repo.ListProjects(cctx)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list projects")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": projects,
		"count": len(projects),
	})
}

// CreateProject creates the project with the caller as its first member.
func (h *ProjectsHandler) CreateProject(ctx *gin.Context) {
	var req project.CreateProjectRequest
	if !BindJSON(ctx, &req) {
		return
	}

	uid, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := requestContext(ctx, 5*time.Second)
	defer cancel()

	p, err := h.repo.CreateProject(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create project")
		return
	}

	if _, err := h.roster.AddMember(cctx, p.ID, uid); err != nil {
		h.discard(ctx, p.ID)
		RespondDomainError(ctx, err, "Could not join project")
		return
	}
	p.Members = []string{uid}

	ctx.JSON(http.StatusCreated, p)
}

// discard removes a project whose creator could not be enrolled so no
// memberless project is left behind. It outlives the request deadline.
func (h *ProjectsHandler) discard(ctx *gin.Context, projectID string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx.Request.Context()), 3*time.Second)
	defer cancel()

	if err := h.repo.DeleteProject(dctx, projectID); err != nil {
		slog.Default().ErrorContext(dctx, "discard project failed",
			"project_id", projectID,
			"err", err,
		)
	}
}

// GetProject returns the project with its members expanded.
func (h *ProjectsHandler) GetProject(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.GetProject(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch project")
		return
	}

	team, err := h.roster.Members(cctx, p.ID)
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch project members")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, projectResponse{Project: p, Team: team})
}

func (h *ProjectsHandler) DeleteProject(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	if err := h.repo.DeleteProject(cctx, ctx.Param("id")); err != nil {
		RespondDomainError(ctx, err, "Could not delete project")
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Join adds the caller to the project. Joining twice is fine.
func (h *ProjectsHandler) Join(ctx *gin.Context) {
	uid, _ := middlewares.UserIDFromContext(ctx)

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	d, err := h.roster.AddMember(cctx, ctx.Param("id"), uid)
	if err != nil {
		RespondDomainError(ctx, err, "Could not join project")
		return
	}

	status := http.StatusOK
	if d.Changed {
		status = http.StatusCreated
	}
	ctx.JSON(status, d)
}

// AddMembers reports per id; earlier adds stay even when later ids fail.
func (h *ProjectsHandler) AddMembers(ctx *gin.Context) {
	var req BulkMembersRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 10*time.Second)
	defer cancel()

	res, err := h.roster.AddMembers(cctx, ctx.Param("id"), req.UserIDs)
	if err != nil {
		RespondDomainError(ctx, err, "Could not add members")
		return
	}

	status := http.StatusOK
	if !res.OK() {
		status = http.StatusMultiStatus
	}
	ctx.JSON(status, res)
}

// RemoveMember lets members leave; moderators may remove anyone.
func (h *ProjectsHandler) RemoveMember(ctx *gin.Context) {
	sess, _ := middlewares.SessionFromContext(ctx)
	target := ctx.Param("userId")

	if target != sess.UserID && !sess.Moderator {
		RespondForbidden(ctx, "Only moderators can remove other members")
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	d, err := h.roster.RemoveMember(cctx, ctx.Param("id"), target)
	if err != nil {
		RespondDomainError(ctx, err, "Could not remove member")
		return
	}

	ctx.JSON(http.StatusOK, d)
}
