package handlers

import (
	"github.com/arzan03/medistore/internal/middleware"
	"github.com/arzan03/medistore/internal/models"
	"github.com/arzan03/medistore/internal/services"
	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	var req models.PlaceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Order must be a non-empty array of medicine IDs")
	}

	if err := h.orders.PlaceOrder(c.UserContext(), middleware.CurrentUser(c).UserID, req.Order); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "message": "Order placed successfully"})
}

func (h *OrderHandler) GetUserOrders(c *fiber.Ctx) error {
	orders, err := h.orders.GetUserOrders(c.UserContext(), middleware.CurrentUser(c).UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "data": orders})
}

func (h *OrderHandler) GetAllOrders(c *fiber.Ctx) error {
	orders, err := h.orders.GetAllOrders(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "data": orders})
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badBody()
	}

	if err := h.orders.UpdateStatus(c.UserContext(), c.Params("id"), body.Status); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": statusSuccess, "message": "Status updated successfully"})
}

func (h *OrderHandler) VerifyToken(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  statusSuccess,
		"message": "Token is valid",
		"user":    middleware.CurrentUser(c),
	})
}
