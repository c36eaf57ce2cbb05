package cart

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/coupons"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// AddItemParams sets a product line in the user's cart. Quantity replaces
// any existing quantity for the product rather than adding to it.
type AddItemParams struct {
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Color     string
}

// Service manages the user's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	AddOrUpdateItem(ctx context.Context, params AddItemParams) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error)
	Empty(ctx context.Context, userID uuid.UUID) error
	ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error)
}

type service struct {
	carts   Repository
	catalog catalog.Service
	coupons coupons.Service
	logg    *logger.Logger
}

func NewService(carts Repository, catalogSvc catalog.Service, couponSvc coupons.Service, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, errors.New("cart repository is required")
	}
	if catalogSvc == nil {
		return nil, errors.New("catalog service is required")
	}
	if couponSvc == nil {
		return nil, errors.New("coupon service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{carts: carts, catalog: catalogSvc, coupons: couponSvc, logg: logg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return s.carts.FindByUserID(ctx, userID)
}

func (s *service) AddOrUpdateItem(ctx context.Context, params AddItemParams) (*models.Cart, error) {
	if params.Quantity < 1 {
		return nil, apperrors.New(apperrors.CodeValidation, "quantity must be at least 1")
	}
	product, err := s.catalog.GetProduct(ctx, params.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.New(apperrors.CodeValidation, "product is not available")
	}
	if params.Color != "" && len(product.Colors) > 0 && !slices.Contains(product.Colors, params.Color) {
		return nil, apperrors.New(apperrors.CodeValidation, "color is not offered for this product")
	}
	if product.Quantity < params.Quantity {
		return nil, apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for "+product.Title).
			WithDetails(map[string]any{
				"product_id": product.ID.String(),
				"available":  product.Quantity,
				"requested":  params.Quantity,
			})
	}

	cart, err := s.carts.GetOrCreate(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  params.Quantity,
		Color:     params.Color,
		Price:     product.Price,
	}
	if err := s.carts.UpsertItem(ctx, item); err != nil {
		return nil, err
	}
	return s.recalculate(ctx, params.UserID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	removed, err := s.carts.DeleteItem(ctx, cart.ID, productID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, apperrors.New(apperrors.CodeNotFound, "product is not in the cart")
	}
	return s.recalculate(ctx, userID)
}

// Empty removes the cart entirely. Emptying a missing cart succeeds.
func (s *service) Empty(ctx context.Context, userID uuid.UUID) error {
	return s.carts.DeleteByUserID(ctx, userID)
}

func (s *service) ApplyCoupon(ctx context.Context, userID uuid.UUID, code string) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "cannot apply a coupon to an empty cart")
	}
	coupon, err := s.coupons.FindValidByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	total := itemsTotal(cart.Items)
	discounted := DiscountedTotal(total, coupon.Discount)
	if err := s.carts.SetTotals(ctx, cart.ID, total, &discounted, &coupon.ID); err != nil {
		return nil, err
	}
	return s.carts.FindByUserID(ctx, userID)
}

// recalculate rebuilds the stored total from line items. Any previously
// applied coupon is dropped: the discount was computed against the old
// total and must be re-applied explicitly.
func (s *service) recalculate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := itemsTotal(cart.Items)
	if err := s.carts.SetTotals(ctx, cart.ID, total, nil, nil); err != nil {
		return nil, err
	}
	return s.carts.FindByUserID(ctx, userID)
}

func itemsTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

// DiscountedTotal applies a percentage discount and rounds to two decimals.
func DiscountedTotal(total decimal.Decimal, discountPercent int) decimal.Decimal {
	factor := decimal.NewFromInt(int64(100 - discountPercent)).Div(decimal.NewFromInt(100))
	return total.Mul(factor).Round(2)
}
