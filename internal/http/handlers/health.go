package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a backing service is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks         map[string]Pinger
	isShuttingDown func() bool
}

// NewHealthHandler builds the probes. isShuttingDown may be nil.
func NewHealthHandler(checks map[string]Pinger, isShuttingDown func() bool) *HealthHandler {
	if isShuttingDown == nil {
		isShuttingDown = func() bool { return false }
	}
	return &HealthHandler{checks: checks, isShuttingDown: isShuttingDown}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz pings every dependency with a short deadline.
func (h *HealthHandler) Readyz(ctx *gin.Context) {
	if h.isShuttingDown() {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
	defer cancel()

	failed := gin.H{}
	for name, ping := range h.checks {
		if ping == nil {
			continue
		}
		if err := ping(cctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
