package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/giftcampaign/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	db      Pinger
	timeout time.Duration
	version string
}

// NewHealthHandler creates a new HealthHandler. db is pinged by the
// readiness probe.
func NewHealthHandler(db Pinger, version string) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second, version: version}
}

// HealthResponse is the probe body
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database,omitempty"`
}

// Live godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /health [get]
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, HealthResponse{Status: "ok", Version: h.version})
}

// Ready godoc
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      503 {object} dto.Response
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		_ = c.Error(err)
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Database is unreachable")
		return
	}
	h.Success(c, HealthResponse{Status: "ready", Version: h.version, Database: "ok"})
}
