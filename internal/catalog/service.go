package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
)

// CreateProductParams describes a new catalog listing.
type CreateProductParams struct {
	Title       string
	Description string
	Brand       string
	Category    string
	Price       decimal.Decimal
	Quantity    int
	Colors      []string
	SalePrice   *decimal.Decimal
}

// UpdateProductParams is the allow-list of mutable product fields. Nil means
// "leave unchanged". Stock counters and ratings are deliberately absent;
// they move only through settlement and rating aggregation.
type UpdateProductParams struct {
	Title       *string
	Description *string
	Brand       *string
	Category    *string
	Price       *decimal.Decimal
	Quantity    *int
	Colors      []string
	IsActive    *bool
	SalePrice   *decimal.Decimal
}

// RateParams records one user's star rating for a catalog entity.
type RateParams struct {
	Target   enums.RatingTarget
	TargetID uuid.UUID
	UserID   uuid.UUID
	Star     int
	Comment  *string
}

// StockLine is one product demand inside a settlement.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// Service exposes catalog management and the stock settlement primitive.
type Service interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, pagination.Meta, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateSaleProduct(ctx context.Context, params CreateProductParams) (*models.SaleProduct, error)
	GetSaleProduct(ctx context.Context, id uuid.UUID) (*models.SaleProduct, error)
	ListSaleProducts(ctx context.Context, filter ListFilter) ([]models.SaleProduct, pagination.Meta, error)
	UpdateSaleProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*models.SaleProduct, error)
	DeleteSaleProduct(ctx context.Context, id uuid.UUID) error

	Rate(ctx context.Context, params RateParams) error
	ListRatings(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) ([]models.Rating, error)

	SettleStock(ctx context.Context, tx *gorm.DB, lines []StockLine) error
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repository Repository, logg *logger.Logger) (Service, error) {
	if repository == nil {
		return nil, errors.New("catalog repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repository, logg: logg}, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the title and collapses runs of punctuation to hyphens.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

func (s *service) CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}
	product := &models.Product{
		Title:       params.Title,
		Slug:        Slugify(params.Title),
		Description: params.Description,
		Brand:       params.Brand,
		Category:    params.Category,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Colors:      pqArray(params.Colors),
		IsActive:    true,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.repo.FindProductByID(ctx, id)
}

func (s *service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.repo.FindProductBySlug(ctx, slug)
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]models.Product, pagination.Meta, error) {
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return products, filter.Page.MetaFor(total), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*models.Product, error) {
	updates, err := buildUpdates(params, false)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.repo.FindProductByID(ctx, id)
	}
	return s.repo.UpdateProduct(ctx, id, updates)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, id)
}

func (s *service) CreateSaleProduct(ctx context.Context, params CreateProductParams) (*models.SaleProduct, error) {
	if err := validateCreate(params); err != nil {
		return nil, err
	}
	if params.SalePrice == nil || !params.SalePrice.IsPositive() {
		return nil, apperrors.New(apperrors.CodeValidation, "sale price must be positive")
	}
	if params.SalePrice.GreaterThanOrEqual(params.Price) {
		return nil, apperrors.New(apperrors.CodeValidation, "sale price must be below the list price")
	}
	product := &models.SaleProduct{
		Title:       params.Title,
		Slug:        Slugify(params.Title),
		Description: params.Description,
		Brand:       params.Brand,
		Category:    params.Category,
		Price:       params.Price,
		SalePrice:   *params.SalePrice,
		Quantity:    params.Quantity,
		Colors:      pqArray(params.Colors),
		IsActive:    true,
	}
	if err := s.repo.CreateSaleProduct(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *service) GetSaleProduct(ctx context.Context, id uuid.UUID) (*models.SaleProduct, error) {
	return s.repo.FindSaleProductByID(ctx, id)
}

func (s *service) ListSaleProducts(ctx context.Context, filter ListFilter) ([]models.SaleProduct, pagination.Meta, error) {
	products, total, err := s.repo.ListSaleProducts(ctx, filter)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return products, filter.Page.MetaFor(total), nil
}

func (s *service) UpdateSaleProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*models.SaleProduct, error) {
	updates, err := buildUpdates(params, true)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return s.repo.FindSaleProductByID(ctx, id)
	}
	return s.repo.UpdateSaleProduct(ctx, id, updates)
}

func (s *service) DeleteSaleProduct(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteSaleProduct(ctx, id)
}

// Rate upserts the user's rating and recomputes the stored aggregate.
// Products round half-up to a whole star; sale products keep one decimal.
func (s *service) Rate(ctx context.Context, params RateParams) error {
	if params.Star < 1 || params.Star > 5 {
		return apperrors.New(apperrors.CodeValidation, "star must be between 1 and 5")
	}
	if !params.Target.IsValid() {
		return apperrors.New(apperrors.CodeValidation, "unknown rating target")
	}

	switch params.Target {
	case enums.RatingTargetProduct:
		if _, err := s.repo.FindProductByID(ctx, params.TargetID); err != nil {
			return err
		}
	case enums.RatingTargetSaleProduct:
		if _, err := s.repo.FindSaleProductByID(ctx, params.TargetID); err != nil {
			return err
		}
	}

	rating := &models.Rating{
		TargetType: params.Target,
		TargetID:   params.TargetID,
		UserID:     params.UserID,
		Star:       params.Star,
		Comment:    params.Comment,
	}
	if err := s.repo.UpsertRating(ctx, rating); err != nil {
		return err
	}

	sum, count, err := s.repo.RatingStats(ctx, params.Target, params.TargetID)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	mean := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count))

	switch params.Target {
	case enums.RatingTargetProduct:
		return s.repo.SetProductRating(ctx, params.TargetID, int(mean.Round(0).IntPart()))
	case enums.RatingTargetSaleProduct:
		return s.repo.SetSaleProductRating(ctx, params.TargetID, mean.Round(1))
	}
	return nil
}

func (s *service) ListRatings(ctx context.Context, target enums.RatingTarget, targetID uuid.UUID) ([]models.Rating, error) {
	if !target.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "unknown rating target")
	}
	return s.repo.ListRatings(ctx, target, targetID)
}

// SettleStock decrements stock for every line inside the caller's
// transaction. All shortages are collected before returning so the buyer
// sees the complete list, and the guarded update keeps concurrent
// settlements honest.
func (s *service) SettleStock(ctx context.Context, tx *gorm.DB, lines []StockLine) error {
	if len(lines) == 0 {
		return apperrors.New(apperrors.CodeValidation, "settlement requires at least one line")
	}
	txRepo := s.repo.WithTx(tx)

	var preflight error
	for _, line := range lines {
		if line.Quantity <= 0 {
			return apperrors.New(apperrors.CodeValidation, "line quantity must be positive")
		}
		product, err := txRepo.FindProductByID(ctx, line.ProductID)
		if err != nil {
			preflight = multierr.Append(preflight, err)
			continue
		}
		if product.Quantity < line.Quantity {
			preflight = multierr.Append(preflight,
				apperrors.New(apperrors.CodeInsufficientStock, "insufficient stock for "+product.Title).
					WithDetails(map[string]any{
						"product_id": product.ID.String(),
						"available":  product.Quantity,
						"requested":  line.Quantity,
					}))
		}
	}
	if preflight != nil {
		return preflight
	}

	for _, line := range lines {
		if err := txRepo.DecrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func validateCreate(params CreateProductParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if Slugify(params.Title) == "" {
		return apperrors.New(apperrors.CodeValidation, "title must contain at least one alphanumeric character")
	}
	if !params.Price.IsPositive() {
		return apperrors.New(apperrors.CodeValidation, "price must be positive")
	}
	if params.Quantity < 0 {
		return apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
	}
	return nil
}

func buildUpdates(params UpdateProductParams, allowSalePrice bool) (map[string]any, error) {
	updates := map[string]any{}
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" || Slugify(title) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "title must not be empty")
		}
		updates["title"] = title
		updates["slug"] = Slugify(title)
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Brand != nil {
		updates["brand"] = *params.Brand
	}
	if params.Category != nil {
		updates["category"] = *params.Category
	}
	if params.Price != nil {
		if !params.Price.IsPositive() {
			return nil, apperrors.New(apperrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *params.Price
	}
	if params.Quantity != nil {
		if *params.Quantity < 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "quantity must not be negative")
		}
		updates["quantity"] = *params.Quantity
	}
	if params.Colors != nil {
		updates["colors"] = pqArray(params.Colors)
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if params.SalePrice != nil {
		if !allowSalePrice {
			return nil, apperrors.New(apperrors.CodeValidation, "sale price only applies to sale products")
		}
		if !params.SalePrice.IsPositive() {
			return nil, apperrors.New(apperrors.CodeValidation, "sale price must be positive")
		}
		updates["sale_price"] = *params.SalePrice
	}
	return updates, nil
}

func pqArray(values []string) pq.StringArray {
	return pq.StringArray(values)
}
