package session

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshMismatch = errors.New("refresh token does not match session")
)

const refreshTokenBytes = 32

// Store is the subset of the redis client the session manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// Manager tracks refresh tokens keyed by the access token's session id.
type Manager struct {
	store Store
	ttl   time.Duration
}

func NewManager(store Store, refreshTTL time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if refreshTTL <= 0 {
		return nil, errors.New("refresh ttl must be positive")
	}
	return &Manager{store: store, ttl: refreshTTL}, nil
}

// NewAccessID returns a random opaque session identifier.
func NewAccessID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating access id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Generate creates a session for accessID and returns the refresh token.
func (m *Manager) Generate(ctx context.Context, accessID string) (string, error) {
	if accessID == "" {
		return "", errors.New("access id is required")
	}
	refresh, err := generateRefreshToken()
	if err != nil {
		return "", err
	}
	key := m.store.AccessSessionKey(accessID)
	if err := m.store.Set(ctx, key, refresh, m.ttl); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return refresh, nil
}

// Rotate validates the presented refresh token, revokes the old session and
// issues a new one under newAccessID.
func (m *Manager) Rotate(ctx context.Context, accessID, refreshToken, newAccessID string) (string, error) {
	stored, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	if err != nil {
		return "", wrapNotFound(err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		return "", ErrRefreshMismatch
	}
	if err := m.Revoke(ctx, accessID); err != nil {
		return "", err
	}
	return m.Generate(ctx, newAccessID)
}

// Revoke removes the session for accessID. Missing sessions are not an error.
func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if accessID == "" {
		return nil
	}
	if err := m.store.Del(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// HasSession reports whether a live session exists for accessID.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if accessID == "" {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID)); err != nil {
		if errors.Is(wrapNotFound(err), ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func wrapNotFound(err error) error {
	if errors.Is(err, goredis.Nil) {
		return ErrSessionNotFound
	}
	return err
}
