package users

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         silent,
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT,
		role TEXT NOT NULL DEFAULT 'user',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_login_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return db
}

func newUser(email string) *models.User {
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: "$argon2id$stub",
		FirstName:    "Test",
		LastName:     "User",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
}

func TestCreateLowercasesEmail(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	user := newUser(" Mixed.Case@Example.COM ")
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "mixed.case@example.com", user.Email)

	found, err := repo.FindByEmail(ctx, "MIXED.case@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("taken@example.com")))

	err := repo.Create(ctx, newUser("Taken@example.com"))
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code())
}

func TestFindMissingUser(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code())

	_, err = repo.FindByEmail(ctx, "ghost@example.com")
	require.Error(t, err)
}

func TestRecordLogin(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	user := newUser("active@example.com")
	require.NoError(t, repo.Create(ctx, user))

	at := time.Now().Truncate(time.Second)
	require.NoError(t, repo.RecordLogin(ctx, user.ID, at))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.WithinDuration(t, at, *found.LastLoginAt, time.Second)
}
