package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"CodeMart/models"
	"CodeMart/services"
)

type OrderHandler struct {
	orders *services.OrderService
}

func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderRequest struct {
	ProjectID  uint   `json:"project_id"`
	CouponCode string `json:"coupon_code"`
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	user := c.Get("user").(*models.User)

	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	order, err := h.orders.CreateOrder(user, req.ProjectID, req.CouponCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
		case errors.Is(err, services.ErrCouponInvalid):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "coupon is invalid or expired"})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create order"})
		}
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	user := c.Get("user").(*models.User)
	orders, err := h.orders.ListByUser(user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch orders"})
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	user := c.Get("user").(*models.User)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	order, err := h.orders.Get(uint(id), user.ID)
	if err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusOK, order)
}
