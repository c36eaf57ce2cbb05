package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/repo"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

// Repository persists discount coupons.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, coupon *models.Coupon) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Consume deletes the coupon and reports whether this caller won the
	// delete. A false return means another settlement consumed it first.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

// NormalizeCode is the canonical storage and lookup form for coupon codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (r *repository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = NormalizeCode(coupon.Code)
	if err := r.base.DB(ctx).Create(coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.New(apperrors.CodeConflict, "coupon code already exists")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating coupon")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.base.DB(ctx).First(&coupon, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading coupon")
	}
	return &coupon, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.base.DB(ctx).First(&coupon, "code = ?", NormalizeCode(code)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "coupon not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading coupon")
	}
	return &coupon, nil
}

func (r *repository) List(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.base.DB(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing coupons")
	}
	return coupons, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Coupon, error) {
	if code, ok := updates["code"].(string); ok {
		updates["code"] = NormalizeCode(code)
	}
	res := r.base.DB(ctx).Model(&models.Coupon{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.CodeConflict, "coupon code already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, res.Error, "updating coupon")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "coupon not found")
	}
	return r.FindByID(ctx, id)
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "deleting coupon")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func (r *repository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.base.DB(ctx).Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, res.Error, "consuming coupon")
	}
	return res.RowsAffected > 0, nil
}

// ValidateForUse checks the business rules for applying a coupon at checkout.
func ValidateForUse(coupon *models.Coupon, now time.Time) error {
	if coupon == nil {
		return apperrors.New(apperrors.CodeInvalidCoupon, "coupon not found")
	}
	if !coupon.Expiry.After(now) {
		return apperrors.New(apperrors.CodeInvalidCoupon, "coupon has expired")
	}
	if coupon.Discount <= 0 || coupon.Discount > 100 {
		return apperrors.New(apperrors.CodeInvalidCoupon, "coupon discount out of range")
	}
	return nil
}
