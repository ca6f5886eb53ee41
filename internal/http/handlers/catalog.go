package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/projecthub/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

type CatalogStore interface {
	CreateCatalogEntry(ctx context.Context, kind catalog.Kind, req catalog.CreateEntryRequest) (catalog.Entry, error)
	GetCatalogEntry(ctx context.Context, kind catalog.Kind, id string) (catalog.Entry, error)
	ListCatalog(ctx context.Context, kind catalog.Kind) ([]catalog.Entry, error)
}

// CatalogHandler serves one lookup kind (fields or interests).
type CatalogHandler struct {
	repo CatalogStore
	kind catalog.Kind
}

func NewCatalogHandler(repo CatalogStore, kind catalog.Kind) *CatalogHandler {
	return &CatalogHandler{repo: repo, kind: kind}
}

func (h *CatalogHandler) Create(ctx *gin.Context) {
	var req catalog.CreateEntryRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	e, err := h.repo.CreateCatalogEntry(cctx, h.kind, req)
	if err != nil {
		RespondDomainError(ctx, err, "Could not create entry")
		return
	}

	ctx.JSON(http.StatusCreated, e)
}

func (h *CatalogHandler) List(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	entries, err := h.repo.ListCatalog(cctx, h.kind)
	if err != nil {
		RespondDomainError(ctx, err, "Could not list entries")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": entries,
		"count": len(entries),
	})
}

func (h *CatalogHandler) Get(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	e, err := h.repo.GetCatalogEntry(cctx, h.kind, ctx.Param("id"))
	if err != nil {
		RespondDomainError(ctx, err, "Could not fetch entry")
		return
	}

	ctx.JSON(http.StatusOK, e)
}
