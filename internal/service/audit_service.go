package service

import (
	"context"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
)

type AuditService struct {
	auditRepo *repository.AuditRepository
	limit     int
}

func NewAuditService(auditRepo *repository.AuditRepository, limit int) *AuditService {
	if limit <= 0 {
		limit = 100
	}
	return &AuditService{auditRepo: auditRepo, limit: limit}
}

// ListAuditLog returns the most recent entries, newest first. ADMIN only.
func (s *AuditService) ListAuditLog(ctx context.Context, p access.Principal) ([]models.AuditLogEntry, error) {
	if err := guard(p, "list audit log", access.AdminOnly); err != nil {
		return nil, err
	}
	return s.auditRepo.Recent(ctx, s.limit)
}
