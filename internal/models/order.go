package models

import (
	"time"

	"gorm.io/datatypes"
)

type Order struct {
	ID         uint      `gorm:"primaryKey" json:"order_id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	OrderDate  time.Time `gorm:"not null;index" json:"order_date"`
	TotalPrice float64   `gorm:"type:numeric(12,2);not null;default:0" json:"total_price"`

	// Nil until an editor or admin sets the first status.
	StatusID *uint        `gorm:"index" json:"-"`
	Status   *OrderStatus `gorm:"foreignKey:StatusID;constraint:OnDelete:SET NULL" json:"status,omitempty"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// StatusName returns the status name, or "" while the order has none.
func (o *Order) StatusName() string {
	if o.Status == nil {
		return ""
	}
	return o.Status.Name
}

// OrderStatus is one entry of the order status vocabulary.
type OrderStatus struct {
	ID   uint   `gorm:"primaryKey" json:"status_id"`
	Name string `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
}

func (OrderStatus) TableName() string {
	return "order_statuses"
}

// AuditLogEntry is written by database triggers, the application only reads it.
type AuditLogEntry struct {
	ID        uint           `gorm:"column:log_id;primaryKey" json:"log_id"`
	Table     string         `gorm:"column:table_name;type:varchar(64);not null" json:"table_name"`
	Operation string         `gorm:"type:varchar(16);not null" json:"operation"`
	ChangedBy string         `gorm:"type:varchar(100)" json:"changed_by"`
	ChangedAt time.Time      `gorm:"not null;index" json:"changed_at"`
	OldData   datatypes.JSON `json:"old_data,omitempty"`
	NewData   datatypes.JSON `json:"new_data,omitempty"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log"
}
