package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/metrics"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/pkg/logger"
	"go.uber.org/zap"
)

type OrderService struct {
	orderRepo *repository.OrderRepository
	now       func() time.Time
}

func NewOrderService(orderRepo *repository.OrderRepository) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		now:       time.Now,
	}
}

// CreateOrder creates an order owned by the caller. It has no status until
// an editor or admin sets one.
func (s *OrderService) CreateOrder(ctx context.Context, p access.Principal, totalPrice float64) (*models.Order, error) {
	if err := guard(p, "create order", access.Authenticated); err != nil {
		return nil, err
	}
	if totalPrice < 0 || math.IsNaN(totalPrice) || math.IsInf(totalPrice, 0) {
		return nil, fmt.Errorf("%w: total price must be a non-negative number", apperr.ErrInvalidInput)
	}

	order := &models.Order{
		UserID:     p.UserID,
		OrderDate:  s.now().UTC(),
		TotalPrice: totalPrice,
	}
	if err := s.orderRepo.Create(ctx, order, p.Username); err != nil {
		logger.Log.Error("Failed to create order", zap.Uint("user_id", p.UserID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Order created",
		zap.Uint("order_id", order.ID),
		zap.Uint("user_id", p.UserID),
		zap.Float64("total_price", totalPrice),
	)
	return s.orderRepo.GetByID(ctx, order.ID)
}

// ListOrders returns every order to ADMIN and EDITOR, and only the caller's own otherwise.
func (s *OrderService) ListOrders(ctx context.Context, p access.Principal) ([]models.Order, error) {
	if err := guard(p, "list orders", access.Authenticated); err != nil {
		return nil, err
	}
	return s.orderRepo.List(ctx, scopeOwner(p))
}

// SetOrderStatus replaces the order's status with any vocabulary entry.
// There is no transition graph: any status may follow any other.
func (s *OrderService) SetOrderStatus(ctx context.Context, p access.Principal, orderID uint, statusName string) (*models.Order, error) {
	if err := guard(p, "set order status", access.StaffOnly); err != nil {
		return nil, err
	}

	statusName = strings.TrimSpace(statusName)
	status, err := s.orderRepo.SetStatus(ctx, orderID, statusName, p.Username)
	if err != nil {
		logger.Log.Warn("Failed to set order status",
			zap.Uint("actor_id", p.UserID),
			zap.Uint("order_id", orderID),
			zap.String("status", statusName),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.StatusTransitionsTotal.WithLabelValues("order", status.Name).Inc()
	logger.Log.Info("Order status changed",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("order_id", orderID),
		zap.String("status", status.Name),
	)
	return s.orderRepo.GetByID(ctx, orderID)
}

// ListStatuses returns the order status vocabulary.
func (s *OrderService) ListStatuses(ctx context.Context, p access.Principal) ([]models.OrderStatus, error) {
	if err := guard(p, "list order statuses", access.Authenticated); err != nil {
		return nil, err
	}
	return s.orderRepo.ListStatuses(ctx)
}
