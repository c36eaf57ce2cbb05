package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/repo"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

// Service manages a user's saved products. Toggling is idempotent in both
// directions: adding twice or removing a missing entry succeeds quietly.
type Service interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
}

type service struct {
	base    repo.Base
	catalog catalog.Service
}

func NewService(db *gorm.DB, catalogSvc catalog.Service) (Service, error) {
	if db == nil {
		return nil, errors.New("db handle is required")
	}
	if catalogSvc == nil {
		return nil, errors.New("catalog service is required")
	}
	return &service{base: repo.NewBase(db), catalog: catalogSvc}, nil
}

func (s *service) Add(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	var existing models.WishlistItem
	err := s.base.DB(ctx).First(&existing, "user_id = ? AND product_id = ?", userID, productID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading wishlist item")
	}
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.base.DB(ctx).Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "saving wishlist item")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.base.DB(ctx).
		Delete(&models.WishlistItem{}, "user_id = ? AND product_id = ?", userID, productID).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "removing wishlist item")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := s.base.DB(ctx).
		Joins("JOIN wishlist_items ON wishlist_items.product_id = products.id").
		Where("wishlist_items.user_id = ?", userID).
		Order("wishlist_items.created_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing wishlist")
	}
	return products, nil
}
