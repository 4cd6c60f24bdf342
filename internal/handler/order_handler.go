package handler

import (
	"net/http"

	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/service"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type CreateOrderRequest struct {
	TotalPrice *float64 `json:"total_price" binding:"required"`
}

type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// orderResponse flattens the owner and status names into the order.
func orderResponse(o *models.Order) gin.H {
	var status interface{}
	if name := o.StatusName(); name != "" {
		status = name
	}
	return gin.H{
		"order_id":    o.ID,
		"user_id":     o.UserID,
		"username":    o.User.Username,
		"order_date":  o.OrderDate,
		"total_price": o.TotalPrice,
		"status":      status,
	}
}

// Create places an order for the caller.
// POST /api/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.Principal(c), *req.TotalPrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": orderResponse(order)})
}

// List returns all orders to ADMIN and EDITOR, the caller's own otherwise.
// GET /api/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(orders))
	for i := range orders {
		out = append(out, orderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

// SetStatus moves an order to any status in the vocabulary.
// PUT /api/orders/:id/status
func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SetOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orderService.SetOrderStatus(c.Request.Context(), middleware.Principal(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": orderResponse(order)})
}

// ListStatuses returns the order status vocabulary.
// GET /api/order-statuses
func (h *OrderHandler) ListStatuses(c *gin.Context) {
	statuses, err := h.orderService.ListStatuses(c.Request.Context(), middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": statuses})
}
