package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/skill"
	"github.com/gin-gonic/gin"
)

type SkillStore interface {
	CreateSkill(ctx context.Context, req skill.CreateSkillRequest) (skill.Skill, error)
	GetSkill(ctx context.Context, id string) (skill.Skill, error)
	ListSkills(ctx context.Context) ([]skill.Skill, error)
}

type SkillsHandler struct {
	repo SkillStore
}

func NewSkillsHandler(repo SkillStore) *SkillsHandler {
	return &SkillsHandler{repo: repo}
}

func (h *SkillsHandler) CreateSkill(ctx *gin.Context) {
	var req skill.CreateSkillRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	sk, err := h.repo.CreateSkill(cctx, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create skill")
		return
	}

	ctx.JSON(http.StatusCreated, sk)
}

func (h *SkillsHandler) ListSkills(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	skills, err := h.repo.ListSkills(cctx)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list skills")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": skills,
		"count": len(skills),
	})
}

func (h *SkillsHandler) GetSkill(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	sk, err := h.repo.GetSkill(cctx, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch skill")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, sk)
}
