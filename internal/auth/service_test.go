package auth

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth/session"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/security"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[uuid.UUID]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(user.Email)
	if _, exists := f.byEmail[email]; exists {
		return apperrors.New(apperrors.CodeConflict, "email already registered")
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = email
	f.byID[user.ID] = user
	f.byEmail[email] = user
	return nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (f *fakeUserRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user, ok := f.byID[id]; ok {
		user.LastLoginAt = &at
	}
	return nil
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryStore) AccessSessionKey(accessID string) string {
	return "session:" + accessID
}

var testPasswordCfg = config.PasswordConfig{
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

func newTestService(t *testing.T) (Service, *fakeUserRepo, *auth.TokenManager) {
	t.Helper()
	repo := newFakeUserRepo()
	tokens, err := auth.NewTokenManager(config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "omegastore-test",
		ExpirationMinutes: 15,
	})
	require.NoError(t, err)
	sessions, err := session.NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	svc, err := NewService(repo, tokens, sessions, testPasswordCfg, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo, tokens
}

func register(t *testing.T, svc Service, email, password string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterParams{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, _, _ := newTestService(t)

	user := register(t, svc, "new@example.com", "s3cret-pass")
	assert.Equal(t, enums.UserRoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	ok, err := security.VerifyPassword("s3cret-pass", user.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "dup@example.com", "password-1")

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "DUP@example.com",
		Password: "password-2",
	})
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code())
}

func TestLoginIssuesUsableTokens(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "login@example.com", "correct-horse")

	user, pair, err := svc.Login(ctx, "login@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	require.NotNil(t, pair)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	payload, err := tokens.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, payload.UserID)
	assert.Equal(t, enums.UserRoleUser, payload.Role)
	assert.NotEmpty(t, payload.AccessID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "victim@example.com", "right-password")

	_, _, err := svc.Login(ctx, "victim@example.com", "wrong-password")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code())

	// Unknown accounts answer identically to wrong passwords.
	_, _, err = svc.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)
	appErr = apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code())
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	user := register(t, svc, "gone@example.com", "password-x")
	repo.byID[user.ID].IsActive = false

	_, _, err := svc.Login(ctx, "gone@example.com", "password-x")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeForbidden, appErr.Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	register(t, svc, "rotate@example.com", "password-y")

	_, pair, err := svc.Login(ctx, "rotate@example.com", "password-y")
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

	_, err = tokens.Parse(fresh.AccessToken)
	require.NoError(t, err)

	// The rotated-out pair is dead.
	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code())
}

func TestRefreshRejectsMismatchedToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "mismatch@example.com", "password-z")

	_, pair, err := svc.Login(ctx, "mismatch@example.com", "password-z")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken, "forged-refresh-token")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeUnauthorized, appErr.Code())
}

func TestLogoutEndsSession(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	register(t, svc, "leave@example.com", "password-w")

	_, pair, err := svc.Login(ctx, "leave@example.com", "password-w")
	require.NoError(t, err)

	payload, err := tokens.Parse(pair.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, payload.AccessID))

	_, err = svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.Error(t, err, "a revoked session cannot refresh")
}
