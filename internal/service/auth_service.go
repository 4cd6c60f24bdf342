package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/apperr"
	"github.com/Baaaki/role-admin/internal/metrics"
	"github.com/Baaaki/role-admin/internal/models"
	"github.com/Baaaki/role-admin/internal/repository"
	"github.com/Baaaki/role-admin/internal/session"
	"github.com/Baaaki/role-admin/internal/utils"
	"github.com/Baaaki/role-admin/pkg/logger"
	"go.uber.org/zap"
)

// Login failure reasons, returned to the client as-is.
const (
	ReasonNotFound      = "not_found"
	ReasonBanned        = "banned"
	ReasonBadCredential = "bad_credential"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUserBanned    = errors.New("account is banned")
	ErrBadCredential = errors.New("invalid password")

	ErrUsernameTaken = fmt.Errorf("username already exists: %w", apperr.ErrConstraintViolation)
)

// FailureReason maps a login error to its reason code, or "" for other errors.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrUserBanned):
		return ReasonBanned
	case errors.Is(err, ErrBadCredential):
		return ReasonBadCredential
	default:
		return ""
	}
}

// RegisterInput is the self-registration form.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
}

type AuthService struct {
	userRepo *repository.UserRepository
	sessions *session.Manager
}

func NewAuthService(userRepo *repository.UserRepository, sessions *session.Manager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Register creates an ACTIVE user holding exactly the VIEWER role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	start := time.Now()
	in.Username = strings.TrimSpace(in.Username)

	if err := validateCredentials(in.Username, in.Password); err != nil {
		logger.Log.Warn("Registration validation failed",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		logger.Log.Warn("Username already exists", zap.String("username", in.Username))
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		logger.Log.Error("Failed to check username existence",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		logger.Log.Error("Failed to hash password", zap.Error(err))
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Status:       models.StatusActive,
		Metadata:     map[string]interface{}{},
	}

	if err := s.userRepo.Create(ctx, user, []string{models.RoleViewer}, in.Username); err != nil {
		if errors.Is(err, apperr.ErrConstraintViolation) {
			// lost a race with a concurrent registration of the same name
			return nil, ErrUsernameTaken
		}
		logger.Log.Error("Failed to create user in database",
			zap.String("username", in.Username),
			zap.Error(err),
		)
		return nil, err
	}
	user.Roles = []models.Role{{Name: models.RoleViewer}}

	logger.Log.Info("User registered successfully",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Duration("total_duration", time.Since(start)),
	)
	return user, nil
}

// Login checks credentials and starts a session. The role set is read here,
// once, and cached in the session for its lifetime.
//
// Order of checks: unknown user, then banned status, then password. A banned
// user is rejected even with the correct password.
func (s *AuthService) Login(ctx context.Context, username, password string) (access.Principal, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			metrics.AuthenticationsTotal.WithLabelValues(ReasonNotFound).Inc()
			logger.Log.Warn("Login failed: user not found", zap.String("username", username))
			return access.Anonymous, "", ErrUserNotFound
		}
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("Failed to get user by username", zap.Error(err))
		return access.Anonymous, "", err
	}

	if !access.MayAuthenticate(user.Status) {
		metrics.AuthenticationsTotal.WithLabelValues(ReasonBanned).Inc()
		logger.Log.Warn("Login failed: user is banned",
			zap.Uint("user_id", user.ID),
			zap.String("username", user.Username),
		)
		return access.Anonymous, "", ErrUserBanned
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Log.Error("Failed to verify password",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
	}
	if !valid {
		metrics.AuthenticationsTotal.WithLabelValues(ReasonBadCredential).Inc()
		logger.Log.Warn("Login failed: invalid password", zap.Uint("user_id", user.ID))
		return access.Anonymous, "", ErrBadCredential
	}

	roles, err := s.userRepo.RoleNames(ctx, user.ID)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		return access.Anonymous, "", err
	}

	p := access.NewPrincipal(user.ID, user.Username, roles)
	token, err := s.sessions.Start(ctx, p)
	if err != nil {
		metrics.AuthenticationsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("Failed to start session",
			zap.Uint("user_id", user.ID),
			zap.Error(err),
		)
		return access.Anonymous, "", fmt.Errorf("start session: %w: %v", apperr.ErrStorageUnavailable, err)
	}

	metrics.AuthenticationsTotal.WithLabelValues("success").Inc()
	logger.Log.Info("User logged in successfully",
		zap.Uint("user_id", user.ID),
		zap.String("username", user.Username),
		zap.Strings("roles", p.Roles),
	)
	return p, token, nil
}

// Logout ends the session behind token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.End(ctx, token)
}

// SessionTTL is the lifetime used for the session cookie.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

func validateCredentials(username, password string) error {
	if len(username) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", apperr.ErrInvalidInput)
	}
	if len(username) > 50 {
		return fmt.Errorf("%w: username must be at most 50 characters", apperr.ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", apperr.ErrInvalidInput)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: password too long", apperr.ErrInvalidInput)
	}
	return nil
}
