package repository

import (
	"context"
	"fmt"

	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order, actor string) error {
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		return tx.Omit("User", "Status").Create(order).Error
	})
	return translate(err, "create order")
}

// List returns orders with owner and status loaded, ordered by id.
// Orders without a status are included. A non-nil ownerID restricts the result to that owner.
func (r *OrderRepository) List(ctx context.Context, ownerID *uint) ([]models.Order, error) {
	var orders []models.Order
	q := r.db.WithContext(ctx).Preload("User").Preload("Status").Order("id")
	if ownerID != nil {
		q = q.Where("user_id = ?", *ownerID)
	}
	if err := q.Find(&orders).Error; err != nil {
		return nil, translate(err, "list orders")
	}
	return orders, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("User").Preload("Status").First(&order, id).Error
	if err != nil {
		return nil, translate(err, "get order")
	}
	return &order, nil
}

// SetStatus points the order at the named vocabulary entry.
// An unknown name fails with apperr.ErrUnknownStatus before anything is written;
// a missing order fails with apperr.ErrNotFound.
func (r *OrderRepository) SetStatus(ctx context.Context, orderID uint, statusName, actor string) (*models.OrderStatus, error) {
	var status models.OrderStatus
	err := inTx(ctx, r.db, actor, func(tx *gorm.DB) error {
		res := tx.Where("name = ?", statusName).Limit(1).Find(&status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order status %q: %w", statusName, apperr.ErrUnknownStatus)
		}

		res = tx.Model(&models.Order{}).Where("id = ?", orderID).Update("status_id", status.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "set order status")
	}
	return &status, nil
}

// ListStatuses returns the order status vocabulary ordered by id.
func (r *OrderRepository) ListStatuses(ctx context.Context) ([]models.OrderStatus, error) {
	var statuses []models.OrderStatus
	if err := r.db.WithContext(ctx).Order("id").Find(&statuses).Error; err != nil {
		return nil, translate(err, "list order statuses")
	}
	return statuses, nil
}
