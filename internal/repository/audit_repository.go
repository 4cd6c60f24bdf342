package repository

import (
	"context"

	"github.com/Baaaki/role-admin/internal/models"
	"gorm.io/gorm"
)

// AuditRepository reads the trigger-maintained audit_log table. It never writes.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Recent returns the newest limit entries, newest first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := r.db.WithContext(ctx).
		Order("changed_at DESC").
		Order("log_id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, translate(err, "list audit log")
	}
	return entries, nil
}
