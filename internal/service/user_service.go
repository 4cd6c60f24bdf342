package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/metrics"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/utils"
	"github.com/Baaaki/role-admin/pkg/logger"
	"go.uber.org/zap"
)

// CreateUserInput is the administrator's "new user" form.
type CreateUserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Status    string
	Metadata  map[string]interface{}
	Roles     []string
}

// UpdateUserInput replaces the editable fields and the full role set of a user.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Status    string
	Metadata  map[string]interface{}
	Roles     []string
}

// ProfileInput is what a user may change on their own account.
type ProfileInput struct {
	FirstName string
	LastName  string
	Metadata  map[string]interface{}
}

// UserDetail is the administrator's view of one user.
type UserDetail struct {
	User           *models.User
	CurrentRoles   []string
	AvailableRoles []string
}

type UserService struct {
	userRepo *repository.UserRepository
	roleRepo *repository.RoleRepository
}

func NewUserService(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// ListUsers returns every user to ADMIN and EDITOR, and only the caller otherwise.
func (s *UserService) ListUsers(ctx context.Context, p access.Principal) ([]models.User, error) {
	if err := guard(p, "list users", access.Authenticated); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List(ctx, scopeOwner(p))
	if err != nil {
		logger.Log.Error("Failed to list users", zap.Uint("actor_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return users, nil
}

// GetUser returns a user with its current and all available roles.
func (s *UserService) GetUser(ctx context.Context, p access.Principal, id uint) (*UserDetail, error) {
	if err := guard(p, "get user", access.AdminOnly); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]string, 0, len(roles))
	for _, r := range roles {
		available = append(available, r.Name)
	}
	return &UserDetail{
		User:           user,
		CurrentRoles:   user.RoleNames(),
		AvailableRoles: available,
	}, nil
}

// CreateUser lets an administrator add a user directly. Without explicit
// roles the user gets VIEWER, like a self-registered one.
func (s *UserService) CreateUser(ctx context.Context, p access.Principal, in CreateUserInput) (*models.User, error) {
	if err := guard(p, "create user", access.AdminOnly); err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if err := validateCredentials(in.Username, in.Password); err != nil {
		return nil, err
	}

	status := models.StatusActive
	if in.Status != "" {
		parsed, err := access.ParseUserStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleViewer}
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Status:       status,
		Metadata:     nonNil(in.Metadata),
	}
	if err := s.userRepo.Create(ctx, user, roles, p.Username); err != nil {
		if errors.Is(err, apperr.ErrConstraintViolation) {
			return nil, ErrUsernameTaken
		}
		logger.Log.Error("Failed to create user",
			zap.Uint("actor_id", p.UserID),
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Admin created user",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("user_id", user.ID),
		zap.Strings("roles", roles),
	)
	return s.userRepo.GetByID(ctx, user.ID)
}

// UpdateUser changes a user's fields and replaces its role set atomically.
// Calling it twice with the same input leaves the same state.
func (s *UserService) UpdateUser(ctx context.Context, p access.Principal, id uint, in UpdateUserInput) (*models.User, error) {
	if err := guard(p, "update user", access.AdminOnly); err != nil {
		return nil, err
	}

	status, err := access.ParseUserStatus(in.Status)
	if err != nil {
		return nil, err
	}

	upd := repository.UserUpdate{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Status:    status,
		Metadata:  nonNil(in.Metadata),
	}
	if err := s.userRepo.UpdateWithRoles(ctx, id, upd, in.Roles, p.Username); err != nil {
		logger.Log.Warn("Failed to update user",
			zap.Uint("actor_id", p.UserID),
			zap.Uint("user_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("User updated",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("user_id", id),
		zap.String("status", string(status)),
		zap.Strings("roles", in.Roles),
	)
	return s.userRepo.GetByID(ctx, id)
}

// SetStatus moves a user between ACTIVE and BANNED. Idempotent.
// A ban is checked at the next login; sessions already issued stay valid.
func (s *UserService) SetStatus(ctx context.Context, p access.Principal, id uint, status models.UserStatus) error {
	if err := guard(p, "set user status", access.AdminOnly); err != nil {
		return err
	}
	if _, err := access.ParseUserStatus(string(status)); err != nil {
		return err
	}

	if err := s.userRepo.SetStatus(ctx, id, status, p.Username); err != nil {
		logger.Log.Warn("Failed to set user status",
			zap.Uint("actor_id", p.UserID),
			zap.Uint("user_id", id),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	metrics.StatusTransitionsTotal.WithLabelValues("user", string(status)).Inc()
	logger.Log.Info("User status changed",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("user_id", id),
		zap.String("status", string(status)),
	)
	return nil
}

// SetVIP sets or clears the vip metadata flag.
func (s *UserService) SetVIP(ctx context.Context, p access.Principal, id uint, vip bool) error {
	if err := guard(p, "set vip", access.AdminOnly); err != nil {
		return err
	}

	patch := func(stored map[string]interface{}) map[string]interface{} {
		return access.WithVIP(stored, vip)
	}
	if err := s.userRepo.PatchMetadata(ctx, id, patch, p.Username); err != nil {
		logger.Log.Warn("Failed to change vip flag",
			zap.Uint("actor_id", p.UserID),
			zap.Uint("user_id", id),
			zap.Bool("vip", vip),
			zap.Error(err),
		)
		return err
	}

	label := "cleared"
	if vip {
		label = "set"
	}
	metrics.StatusTransitionsTotal.WithLabelValues("vip", label).Inc()
	logger.Log.Info("VIP flag changed",
		zap.Uint("actor_id", p.UserID),
		zap.Uint("user_id", id),
		zap.Bool("vip", vip),
	)
	return nil
}

// GetProfile returns the caller's own user record.
func (s *UserService) GetProfile(ctx context.Context, p access.Principal) (*models.User, error) {
	if err := guard(p, "get profile", access.Authenticated); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, p.UserID)
}

// UpdateProfile edits the caller's own name and metadata. The vip flag is
// not the owner's to change and keeps its stored value.
func (s *UserService) UpdateProfile(ctx context.Context, p access.Principal, in ProfileInput) (*models.User, error) {
	if err := guard(p, "update profile", access.Authenticated); err != nil {
		return nil, err
	}

	patch := func(stored map[string]interface{}) map[string]interface{} {
		return access.MergeProfileMetadata(stored, in.Metadata)
	}
	if err := s.userRepo.UpdateProfile(ctx, p.UserID, in.FirstName, in.LastName, patch, p.Username); err != nil {
		logger.Log.Warn("Failed to update profile", zap.Uint("user_id", p.UserID), zap.Error(err))
		return nil, err
	}
	return s.userRepo.GetByID(ctx, p.UserID)
}

// guard runs the access checks for op and logs a rejection.
func guard(p access.Principal, op string, guards ...access.Guard) error {
	if err := access.Check(p, guards...); err != nil {
		logger.Log.Warn("Access denied",
			zap.String("operation", op),
			zap.Uint("actor_id", p.UserID),
			zap.Strings("roles", p.Roles),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// scopeOwner returns nil when p sees every row, otherwise p's own id.
func scopeOwner(p access.Principal) *uint {
	if access.CanSeeAll(p) {
		return nil
	}
	id := p.UserID
	return &id
}

func nonNil(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}
