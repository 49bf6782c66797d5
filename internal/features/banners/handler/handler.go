package handler

import (
	"errors"
	"net/http"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/server"
	"fruit-fusion/internal/features/banners/domain"
	"fruit-fusion/internal/features/banners/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// BannerHandler handles HTTP requests for banners.
type BannerHandler struct {
	service ports.BannerService
}

// NewBannerHandler creates a new BannerHandler.
func NewBannerHandler(service ports.BannerService) *BannerHandler {
	return &BannerHandler{
		service: service,
	}
}

// CreateBannerRequest represents the request body for creating a banner.
type CreateBannerRequest struct {
	Title    string            `json:"title"`
	Subtitle string            `json:"subtitle"`
	Type     domain.BannerType `json:"type"`
	Duration int               `json:"duration"` // Seconds
}

// SetBanner handles POST /admin/banner.
// @Summary Set a new banner
// @Description Creates or updates the site-wide banner alert.
// @Tags Banner
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param banner body CreateBannerRequest true "Banner details"
// @Success 200 {object} map[string]string
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /admin/banner [post]
func (h *BannerHandler) SetBanner(c *fiber.Ctx) error {
	var req CreateBannerRequest
	if err := c.BodyParser(&req); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx := c.Context()
	if err := h.service.SetBanner(ctx, req.Title, req.Subtitle, req.Type, req.Duration); err != nil {
		if errors.Is(err, domain.ErrInvalidBannerType) {
			return server.RespondError(c, http.StatusBadRequest, "Invalid banner type. Must be INFO, WARNING, or DANGER")
		}
		if errors.Is(err, domain.ErrEmptyTitle) {
			return server.RespondError(c, http.StatusBadRequest, "Banner title is required")
		}
		logger.Get().Error("Failed to set banner", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return server.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Banner set successfully",
	})
}

// GetBanner handles GET /banner.
// @Summary Get the current banner
// @Description Retrieves the active site-wide banner alert, including the offline notice.
// @Tags Banner
// @Produce json
// @Success 200 {object} domain.Banner
// @Failure 404 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /banner [get]
func (h *BannerHandler) GetBanner(c *fiber.Ctx) error {
	ctx := c.Context()
	banner, err := h.service.GetBanner(ctx)
	if err != nil {
		logger.Get().Error("Failed to get banner", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return server.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}

	if banner == nil {
		return server.RespondError(c, http.StatusNotFound, "No active banner")
	}

	return c.Status(http.StatusOK).JSON(banner)
}

// RemoveBanner handles DELETE /admin/banner.
// @Summary Remove the current banner
// @Description Manually removes the active site-wide banner alert.
// @Tags Banner
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Success 200 {object} map[string]string
// @Failure 401 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /admin/banner [delete]
func (h *BannerHandler) RemoveBanner(c *fiber.Ctx) error {
	ctx := c.Context()
	if err := h.service.RemoveBanner(ctx); err != nil {
		logger.Get().Error("Failed to remove banner", zap.String("ray_id", server.RayID(c)), zap.Error(err))
		return server.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message": "Banner removed successfully",
	})
}
