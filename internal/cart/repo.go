package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/repo"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

// Repository persists carts and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	UpsertItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error)
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
	SetTotals(ctx context.Context, cartID uuid.UUID, total decimal.Decimal, afterDiscount *decimal.Decimal, couponID *uuid.UUID) error
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

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.base.DB(ctx).Preload("Items").First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "cart is empty")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cart")
	}
	return &cart, nil
}

func (r *repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.base.DB(ctx).Preload("Items").First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID, CartTotal: decimal.Zero}
		if err := r.base.DB(ctx).Create(&cart).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating cart")
		}
		return &cart, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading cart")
	}
	return &cart, nil
}

func (r *repository) UpsertItem(ctx context.Context, item *models.CartItem) error {
	var existing models.CartItem
	err := r.base.DB(ctx).
		First(&existing, "cart_id = ? AND product_id = ?", item.CartID, item.ProductID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.base.DB(ctx).Create(item).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "adding cart item")
		}
		return nil
	case err != nil:
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading cart item")
	default:
		updates := map[string]any{
			"quantity": item.Quantity,
			"color":    item.Color,
			"price":    item.Price,
		}
		if err := r.base.DB(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating cart item")
		}
		item.ID = existing.ID
		return nil
	}
}

func (r *repository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) (bool, error) {
	res := r.base.DB(ctx).Delete(&models.CartItem{}, "cart_id = ? AND product_id = ?", cartID, productID)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, res.Error, "removing cart item")
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	var cart models.Cart
	err := r.base.DB(ctx).First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading cart")
	}
	if err := r.base.DB(ctx).Delete(&models.CartItem{}, "cart_id = ?", cart.ID).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "clearing cart items")
	}
	if err := r.base.DB(ctx).Delete(&cart).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting cart")
	}
	return nil
}

func (r *repository) SetTotals(ctx context.Context, cartID uuid.UUID, total decimal.Decimal, afterDiscount *decimal.Decimal, couponID *uuid.UUID) error {
	updates := map[string]any{
		"cart_total":           total,
		"total_after_discount": afterDiscount,
		"coupon_id":            couponID,
	}
	err := r.base.DB(ctx).Model(&models.Cart{}).Where("id = ?", cartID).Updates(updates).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "storing cart totals")
	}
	return nil
}
