package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/repo"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
)

// ListFilter narrows product listings. Zero values mean "no filter".
type ListFilter struct {
	Category string
	Brand    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Page     pagination.Params
}

var sortColumns = map[string]string{
	"":             "created_at DESC",
	"newest":       "created_at DESC",
	"price_asc":    "price ASC",
	"price_desc":   "price DESC",
	"best_selling": "sold DESC",
	"top_rated":    "total_rating DESC",
}

// Repository persists catalog entities.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, int64, error)

	CreateSaleProduct(ctx context.Context, product *models.SaleProduct) error
	FindSaleProductByID(ctx context.Context, id uuid.UUID) (*models.SaleProduct, error)
	UpdateSaleProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.SaleProduct, error)
	DeleteSaleProduct(ctx context.Context, id uuid.UUID) error
	ListSaleProducts(ctx context.Context, filter ListFilter) ([]models.SaleProduct, int64, error)

	UpsertRating(ctx context.Context, rating *models.Rating) error
	RatingStats(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) (sum int64, count int64, err error)
	ListRatings(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) ([]models.Rating, error)
	SetProductRating(ctx context.Context, id uuid.UUID, rating int) error
	SetSaleProductRating(ctx context.Context, id uuid.UUID, rating decimal.Decimal) error

	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
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

func (r *repository) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := r.base.DB(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.New(apperrors.CodeConflict, "product slug already exists")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating product")
	}
	return nil
}

func (r *repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.base.DB(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}

func (r *repository) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.base.DB(ctx).First(&product, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}

func (r *repository) UpdateProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.Product, error) {
	res := r.base.DB(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.CodeConflict, "product slug already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, res.Error, "updating product")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return r.FindProductByID(ctx, id)
}

func (r *repository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "deleting product")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "product not found")
	}
	return nil
}

func (r *repository) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, int64, error) {
	query := r.applyFilter(r.base.DB(ctx).Model(&models.Product{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting products")
	}

	order, ok := sortColumns[filter.Sort]
	if !ok {
		return nil, 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported sort %q", filter.Sort))
	}

	var products []models.Product
	err := query.
		Order(order).
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing products")
	}
	return products, total, nil
}

func (r *repository) CreateSaleProduct(ctx context.Context, product *models.SaleProduct) error {
	if err := r.base.DB(ctx).Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.New(apperrors.CodeConflict, "sale product slug already exists")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating sale product")
	}
	return nil
}

func (r *repository) FindSaleProductByID(ctx context.Context, id uuid.UUID) (*models.SaleProduct, error) {
	var product models.SaleProduct
	err := r.base.DB(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "sale product not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading sale product")
	}
	return &product, nil
}

func (r *repository) UpdateSaleProduct(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.SaleProduct, error) {
	res := r.base.DB(ctx).Model(&models.SaleProduct{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, apperrors.New(apperrors.CodeConflict, "sale product slug already exists")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, res.Error, "updating sale product")
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "sale product not found")
	}
	return r.FindSaleProductByID(ctx, id)
}

func (r *repository) DeleteSaleProduct(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Delete(&models.SaleProduct{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "deleting sale product")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "sale product not found")
	}
	return nil
}

func (r *repository) ListSaleProducts(ctx context.Context, filter ListFilter) ([]models.SaleProduct, int64, error) {
	query := r.applyFilter(r.base.DB(ctx).Model(&models.SaleProduct{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting sale products")
	}

	order, ok := sortColumns[filter.Sort]
	if !ok {
		return nil, 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unsupported sort %q", filter.Sort))
	}

	var products []models.SaleProduct
	err := query.
		Order(order).
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset()).
		Find(&products).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing sale products")
	}
	return products, total, nil
}

func (r *repository) applyFilter(query *gorm.DB, filter ListFilter) *gorm.DB {
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	return query
}

func (r *repository) UpsertRating(ctx context.Context, rating *models.Rating) error {
	existing := models.Rating{}
	err := r.base.DB(ctx).
		Where("target_type = ? AND target_id = ? AND user_id = ?", rating.TargetType, rating.TargetID, rating.UserID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.base.DB(ctx).Create(rating).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "creating rating")
		}
		return nil
	case err != nil:
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading rating")
	default:
		updates := map[string]any{"star": rating.Star, "comment": rating.Comment}
		if err := r.base.DB(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "updating rating")
		}
		rating.ID = existing.ID
		return nil
	}
}

func (r *repository) RatingStats(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) (int64, int64, error) {
	var stats struct {
		Sum   int64
		Count int64
	}
	err := r.base.DB(ctx).
		Model(&models.Rating{}).
		Select("COALESCE(SUM(star), 0) AS sum, COUNT(*) AS count").
		Where("target_type = ? AND target_id = ?", target, targetID).
		Scan(&stats).Error
	if err != nil {
		return 0, 0, apperrors.Wrap(apperrors.CodeInternal, err, "aggregating ratings")
	}
	return stats.Sum, stats.Count, nil
}

func (r *repository) ListRatings(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) ([]models.Rating, error) {
	var ratings []models.Rating
	err := r.base.DB(ctx).
		Where("target_type = ? AND target_id = ?", target, targetID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing ratings")
	}
	return ratings, nil
}

func (r *repository) SetProductRating(ctx context.Context, id uuid.UUID, rating int) error {
	err := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("total_rating", rating).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "storing product rating")
	}
	return nil
}

func (r *repository) SetSaleProductRating(ctx context.Context, id uuid.UUID, rating decimal.Decimal) error {
	err := r.base.DB(ctx).
		Model(&models.SaleProduct{}).
		Where("id = ?", id).
		Update("total_rating", rating).Error
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "storing sale product rating")
	}
	return nil
}

// DecrementStock applies a guarded decrement. The quantity floor lives in the
// WHERE clause so a concurrent settlement can never drive stock negative.
func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error {
	res := r.base.DB(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", productID, quantity).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity - ?", quantity),
			"sold":     gorm.Expr("sold + ?", quantity),
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "decrementing stock")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{"product_id": productID.String(), "requested": quantity})
	}
	return nil
}
