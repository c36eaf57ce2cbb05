package coupons

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
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	silent := gormlogger.New(log.New(io.Discard, "", log.LstdFlags), gormlogger.Config{LogLevel: gormlogger.Silent})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         silent,
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE coupons (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		discount INTEGER NOT NULL,
		expiry DATETIME NOT NULL,
		user_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return db
}

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return svc, repo
}

func seedCoupon(t *testing.T, repo Repository, code string, discount int, expiry time.Time) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		ID:       uuid.New(),
		Code:     code,
		Discount: discount,
		Expiry:   expiry,
	}
	require.NoError(t, repo.Create(context.Background(), coupon))
	return coupon
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SAVE10", NormalizeCode("  save10 "))
	assert.Equal(t, "NEWYEAR", NormalizeCode("NewYear"))
	assert.Equal(t, "", NormalizeCode("   "))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	_, err := svc.Create(ctx, CreateParams{Code: " ", Discount: 10, Expiry: future})
	require.Error(t, err)

	for _, discount := range []int{0, -5, 101} {
		_, err = svc.Create(ctx, CreateParams{Code: "OK", Discount: discount, Expiry: future})
		require.Error(t, err)
	}

	_, err = svc.Create(ctx, CreateParams{Code: "OK", Discount: 10, Expiry: time.Now().Add(-time.Minute)})
	require.Error(t, err)
}

func TestCreateStoresNormalizedCode(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	coupon, err := svc.Create(ctx, CreateParams{Code: "  winter25 ", Discount: 25, Expiry: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "WINTER25", coupon.Code)

	found, err := repo.FindByCode(ctx, "Winter25")
	require.NoError(t, err)
	assert.Equal(t, coupon.ID, found.ID)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	_, err := svc.Create(ctx, CreateParams{Code: "TWICE", Discount: 5, Expiry: expiry})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateParams{Code: "twice", Discount: 5, Expiry: expiry})
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code())
}

func TestFindValidByCode(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	seedCoupon(t, repo, "LIVE", 20, time.Now().Add(time.Hour))
	seedCoupon(t, repo, "DEAD", 20, time.Now().Add(time.Second))

	coupon, err := svc.FindValidByCode(ctx, " live ")
	require.NoError(t, err)
	assert.Equal(t, 20, coupon.Discount)

	_, err = svc.FindValidByCode(ctx, "MISSING")
	require.Error(t, err)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidCoupon, appErr.Code())
}

func TestValidateForUse(t *testing.T) {
	now := time.Now()
	live := &models.Coupon{Code: "A", Discount: 10, Expiry: now.Add(time.Hour)}
	require.NoError(t, ValidateForUse(live, now))

	expired := &models.Coupon{Code: "B", Discount: 10, Expiry: now.Add(-time.Hour)}
	require.Error(t, ValidateForUse(expired, now))

	badDiscount := &models.Coupon{Code: "C", Discount: 0, Expiry: now.Add(time.Hour)}
	require.Error(t, ValidateForUse(badDiscount, now))

	require.Error(t, ValidateForUse(nil, now))
}

func TestConsumeHasSingleWinner(t *testing.T) {
	_, repo := newTestService(t)
	ctx := context.Background()
	coupon := seedCoupon(t, repo, "ONCE", 15, time.Now().Add(time.Hour))

	won, err := repo.Consume(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.Consume(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, won, "second consume must lose")

	_, err = repo.FindByID(ctx, coupon.ID)
	require.Error(t, err)
}

func TestUpdateAllowList(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	coupon := seedCoupon(t, repo, "EDITME", 10, time.Now().Add(time.Hour))

	discount := 30
	updated, err := svc.Update(ctx, coupon.ID, UpdateParams{Discount: &discount})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Discount)
	assert.Equal(t, "EDITME", updated.Code)

	past := time.Now().Add(-time.Hour)
	_, err = svc.Update(ctx, coupon.ID, UpdateParams{Expiry: &past})
	require.Error(t, err)
}
