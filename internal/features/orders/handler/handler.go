package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/server"
	"fruit-fusion/internal/features/orders/domain"
	"fruit-fusion/internal/features/orders/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// writeTimeout bounds a write once accepted; writes outlive client disconnects.
const writeTimeout = 15 * time.Second

const savedOfflineMessage = "Saved offline. It will sync when the connection returns."

// OrderHandler handles HTTP requests related to orders.
type OrderHandler struct {
	// service is the OrderService instance.
	service ports.OrderService
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(s ports.OrderService) *OrderHandler {
	return &OrderHandler{
		service: s,
	}
}

// WriteResponse is returned by order writes.
type WriteResponse struct {
	// Message describes the outcome.
	Message string `json:"message"`
	// Order is the stored order.
	Order domain.Order `json:"order"`
	// Offline is set when the write was queued for replay.
	Offline bool `json:"offline"`
}

// UpdateStatusRequest is the body of a status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ListUserOrders handles GET /orders.
// @Summary List a customer's orders
// @Description Lists the orders of a customer, newest first. Served from the local cache with offline=true when the store is unreachable.
// @Tags Orders
// @Produce json
// @Param userId query string true "Customer ID"
// @Success 200 {object} domain.OrderList
// @Failure 400 {object} server.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListUserOrders(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return server.RespondError(c, http.StatusBadRequest, "userId is required")
	}
	return h.list(c, userID)
}

// ListAllOrders handles GET /admin/orders.
// @Summary List all orders
// @Description Lists every order, newest first.
// @Tags Orders
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Success 200 {object} domain.OrderList
// @Failure 401 {object} server.ErrorResponse
// @Router /admin/orders [get]
func (h *OrderHandler) ListAllOrders(c *fiber.Ctx) error {
	return h.list(c, "")
}

func (h *OrderHandler) list(c *fiber.Ctx, userID string) error {
	list, err := h.service.ListOrders(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, "Failed to list orders", err)
	}
	return c.Status(http.StatusOK).JSON(list)
}

// GetOrder handles GET /orders/:id.
// @Summary Get Order by ID
// @Description Fetch a single normalized order.
// @Tags Orders
// @Produce json
// @Param id path string true "Order ID"
// @Success 200 {object} domain.OrderResult
// @Failure 404 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if orderID == "" {
		return server.RespondError(c, http.StatusBadRequest, "Order ID is required")
	}

	res, err := h.service.GetOrder(c.UserContext(), orderID)
	if err != nil {
		return h.fail(c, "Failed to fetch order", err, zap.String("order_id", orderID))
	}
	return c.Status(http.StatusOK).JSON(res)
}

// PlaceOrder handles POST /orders.
// @Summary Place an order
// @Description Validates the checkout and stores the order. Returns 202 when the order was saved offline.
// @Tags Orders
// @Accept json
// @Produce json
// @Param order body object true "Checkout form: customerName, phoneNumber, address, email, userId, items"
// @Success 201 {object} WriteResponse
// @Success 202 {object} WriteResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 500 {object} server.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var raw domain.RawOrder
	if err := c.BodyParser(&raw); err != nil || raw == nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.PlaceOrder(ctx, raw)
	if err != nil {
		return h.fail(c, "Failed to place order", err)
	}

	if res.Offline {
		return c.Status(http.StatusAccepted).JSON(WriteResponse{Message: savedOfflineMessage, Order: res.Order, Offline: true})
	}
	return c.Status(http.StatusCreated).JSON(WriteResponse{Message: "Order placed", Order: res.Order})
}

// UpdateStatus handles PATCH /admin/orders/:id/status.
// @Summary Update order status
// @Description Moves an order to a new status. Returns 202 when the change was saved offline.
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Admin-Password header string true "Admin password"
// @Param id path string true "Order ID"
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} WriteResponse
// @Success 202 {object} WriteResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /admin/orders/{id}/status [patch]
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return server.RespondError(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	res, err := h.service.UpdateStatus(ctx, orderID, req.Status)
	if err != nil {
		return h.fail(c, "Failed to update order status", err, zap.String("order_id", orderID))
	}

	if res.Offline {
		return c.Status(http.StatusAccepted).JSON(WriteResponse{Message: savedOfflineMessage, Order: res.Order, Offline: true})
	}
	return c.Status(http.StatusOK).JSON(WriteResponse{Message: "Status updated", Order: res.Order})
}

// fail maps service errors to responses: validation 400, missing 404, anything else 500.
func (h *OrderHandler) fail(c *fiber.Ctx, logMsg string, err error, fields ...zap.Field) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return server.RespondError(c, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrInvalidStatus):
		return server.RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ports.ErrOrderNotFound):
		return server.RespondError(c, http.StatusNotFound, "Order not found")
	}

	logger.Get().Error(logMsg, append(fields, zap.String("ray_id", server.RayID(c)), zap.Error(err))...)
	return server.RespondError(c, http.StatusInternalServerError, err.Error())
}
