package handler

import (
	"context"
	"fmt"
	"net/http"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/server"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Replayer replays queued offline writes.
type Replayer interface {
	Replay(ctx context.Context) (int, error)
	Pending(ctx context.Context) (int64, error)
}

// SyncHandler exposes the offline write queue to admins.
type SyncHandler struct {
	replayer Replayer
}

// NewSyncHandler creates a new SyncHandler.
func NewSyncHandler(replayer Replayer) *SyncHandler {
	return &SyncHandler{replayer: replayer}
}

// SyncResponse reports the state of the offline write queue.
type SyncResponse struct {
	Applied int   `json:"applied"`
	Pending int64 `json:"pending"`
}

// GetStatus handles GET /admin/sync.
// @Summary Offline write queue status
// @Tags Sync
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Success 200 {object} SyncResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /admin/sync [get]
func (h *SyncHandler) GetStatus(c *fiber.Ctx) error {
	pending, err := h.replayer.Pending(c.UserContext())
	if err != nil {
		logger.Get().Error("Failed to read outbox length", zap.Error(err))
		return server.RespondError(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(SyncResponse{Pending: pending})
}

// Sync handles POST /admin/sync.
// @Summary Replay offline writes now
// @Description Replays queued writes against the hosted store, oldest first, stopping at the first failure.
// @Tags Sync
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Success 200 {object} SyncResponse
// @Failure 503 {object} server.ErrorResponse
// @Router /admin/sync [post]
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	ctx := c.UserContext()
	applied, err := h.replayer.Replay(ctx)
	pending, perr := h.replayer.Pending(ctx)
	if perr != nil {
		logger.Get().Warn("Failed to read outbox length", zap.Error(perr))
	}

	if err != nil {
		logger.Get().Warn("Manual sync incomplete",
			zap.Int("applied", applied),
			zap.Int64("pending", pending),
			zap.String("ray_id", server.RayID(c)),
			zap.Error(err),
		)
		return server.RespondError(c, http.StatusServiceUnavailable,
			fmt.Sprintf("sync stopped after %d writes, %d still pending: %v", applied, pending, err))
	}

	return c.JSON(SyncResponse{Applied: applied, Pending: pending})
}
