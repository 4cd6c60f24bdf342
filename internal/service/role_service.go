package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/pkg/logger"
	"go.uber.org/zap"
)

type RoleService struct {
	roleRepo *repository.RoleRepository
}

func NewRoleService(roleRepo *repository.RoleRepository) *RoleService {
	return &RoleService{roleRepo: roleRepo}
}

func (s *RoleService) ListRoles(ctx context.Context, p access.Principal) ([]models.Role, error) {
	if err := guard(p, "list roles", access.AdminOnly); err != nil {
		return nil, err
	}
	return s.roleRepo.List(ctx)
}

// CreateRole adds a role. Names are stored upper-case; a duplicate name fails
// with apperr.ErrConstraintViolation.
func (s *RoleService) CreateRole(ctx context.Context, p access.Principal, name, description string) (*models.Role, error) {
	if err := guard(p, "create role", access.AdminOnly); err != nil {
		return nil, err
	}

	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" || len(name) > 50 {
		return nil, fmt.Errorf("%w: role name must be 1-50 characters", apperr.ErrInvalidInput)
	}

	role := &models.Role{Name: name, Description: strings.TrimSpace(description)}
	if err := s.roleRepo.Create(ctx, role, p.Username); err != nil {
		logger.Log.Warn("Failed to create role",
			zap.Uint("actor_id", p.UserID),
			zap.String("role", name),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Role created",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("role_id", role.ID),
		zap.String("role", role.Name),
	)
	return role, nil
}
