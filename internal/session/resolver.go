package session

import (
	"context"
	"errors"
	"time"

	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/utils"
	"github.com/Baaaki/role-admin/pkg/logger"
	"go.uber.org/zap"
)

// Manager issues session tokens at login and resolves them on later requests.
type Manager struct {
	store  Store
	secret string
}

func NewManager(store Store, secret string) *Manager {
	return &Manager{store: store, secret: secret}
}

// Start stores p and returns the signed token for the session cookie.
func (m *Manager) Start(ctx context.Context, p access.Principal) (string, error) {
	sessionID, err := m.store.Create(ctx, p)
	if err != nil {
		return "", err
	}

	token, err := utils.GenerateSessionToken(sessionID, p.UserID, m.secret, m.store.TTL())
	if err != nil {
		_ = m.store.Delete(ctx, sessionID)
		return "", err
	}
	return token, nil
}

// Resolve maps a session token to its principal. It never fails: a missing,
// invalid or expired token, an unknown session or a store error all resolve
// to access.Anonymous.
func (m *Manager) Resolve(ctx context.Context, token string) access.Principal {
	if token == "" {
		return access.Anonymous
	}

	claims, err := utils.ValidateSessionToken(token, m.secret)
	if err != nil {
		logger.Log.Debug("Session token rejected", zap.Error(err))
		return access.Anonymous
	}

	p, err := m.store.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.Log.Warn("Session store lookup failed",
				zap.String("session_id", claims.SessionID),
				zap.Error(err),
			)
		}
		return access.Anonymous
	}

	// a token minted for one user must not unlock another user's session
	if p.UserID != claims.UserID {
		return access.Anonymous
	}
	return p
}

// End deletes the session behind token. Unknown or invalid tokens are ignored.
func (m *Manager) End(ctx context.Context, token string) error {
	claims, err := utils.ValidateSessionToken(token, m.secret)
	if err != nil {
		return nil
	}
	return m.store.Delete(ctx, claims.SessionID)
}

func (m *Manager) TTL() time.Duration {
	return m.store.TTL()
}
