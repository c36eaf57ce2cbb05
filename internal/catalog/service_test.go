package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
)

func pageParams(page, limit int) pagination.Params {
	return pagination.Params{Page: page, Limit: limit}
}

func seedProduct(t *testing.T, db *gorm.DB, title string, price string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Title:    title,
		Slug:     Slugify(title),
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedSaleProduct(t *testing.T, db *gorm.DB, title string) *models.SaleProduct {
	t.Helper()
	product := &models.SaleProduct{
		ID:        uuid.New(),
		Title:     title,
		Slug:      Slugify(title),
		Price:     decimal.RequireFromString("100"),
		SalePrice: decimal.RequireFromString("80"),
		Quantity:  10,
		IsActive:  true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func newTestService(t *testing.T) (Service, Repository, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo, testLogger())
	require.NoError(t, err)
	return svc, repo, db
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"iPhone 15 Pro":     "iphone-15-pro",
		"  Wireless Mouse ": "wireless-mouse",
		"100% Cotton Tee!":  "100-cotton-tee",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input))
	}
}

func TestProductRatingRoundsHalfUpToWholeStar(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Rated Product", "100", 5)

	// 3 + 4 = 7, mean 3.5, rounds up to 4.
	for _, star := range []int{3, 4} {
		err := svc.Rate(ctx, RateParams{
			Target:   enums.RatingTargetProduct,
			TargetID: product.ID,
			UserID:   uuid.New(),
			Star:     star,
		})
		require.NoError(t, err)
	}

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 4, got.TotalRating)
}

func TestSaleProductRatingKeepsOneDecimal(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	product := seedSaleProduct(t, db, "Sale Rated")

	// 3 + 4 + 3 = 10, mean 3.333..., stored as 3.3.
	for _, star := range []int{3, 4, 3} {
		err := svc.Rate(ctx, RateParams{
			Target:   enums.RatingTargetSaleProduct,
			TargetID: product.ID,
			UserID:   uuid.New(),
			Star:     star,
		})
		require.NoError(t, err)
	}

	var got models.SaleProduct
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.True(t, got.TotalRating.Equal(decimal.RequireFromString("3.3")),
		"got %s", got.TotalRating)
}

func TestRateIsLastWritePerUser(t *testing.T) {
	svc, repo, db := newTestService(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Re-rated", "50", 3)
	userID := uuid.New()

	require.NoError(t, svc.Rate(ctx, RateParams{
		Target: enums.RatingTargetProduct, TargetID: product.ID, UserID: userID, Star: 1,
	}))
	require.NoError(t, svc.Rate(ctx, RateParams{
		Target: enums.RatingTargetProduct, TargetID: product.ID, UserID: userID, Star: 5,
	}))

	ratings, err := repo.ListRatings(ctx, enums.RatingTargetProduct, product.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Star)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 5, got.TotalRating)
}

func TestRateRejectsOutOfRangeStar(t *testing.T) {
	svc, _, db := newTestService(t)
	product := seedProduct(t, db, "Bounds", "10", 1)

	for _, star := range []int{0, 6, -1} {
		err := svc.Rate(context.Background(), RateParams{
			Target: enums.RatingTargetProduct, TargetID: product.ID, UserID: uuid.New(), Star: star,
		})
		require.Error(t, err)
	}
}

func TestSettleStockDecrementsAndIncrementsSold(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	product := seedProduct(t, db, "In Stock", "20", 10)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SettleStock(ctx, tx, []StockLine{{ProductID: product.ID, Quantity: 4}})
	})
	require.NoError(t, err)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 6, got.Quantity)
	assert.Equal(t, 4, got.Sold)
}

func TestSettleStockNeverGoesNegative(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Scarce", "20", 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SettleStock(ctx, tx, []StockLine{{ProductID: product.ID, Quantity: 3}})
	})
	require.Error(t, err)

	appErr := apperrors.As(multierr.Errors(err)[0])
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInsufficientStock, appErr.Code())

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", product.ID).Error)
	assert.Equal(t, 2, got.Quantity, "failed settlement must not touch stock")
	assert.Equal(t, 0, got.Sold)
}

func TestSettleStockReportsAllShortages(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	first := seedProduct(t, db, "First Short", "10", 1)
	second := seedProduct(t, db, "Second Short", "10", 0)
	fine := seedProduct(t, db, "Plenty", "10", 50)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.SettleStock(ctx, tx, []StockLine{
			{ProductID: first.ID, Quantity: 2},
			{ProductID: second.ID, Quantity: 1},
			{ProductID: fine.ID, Quantity: 1},
		})
	})
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)

	var got models.Product
	require.NoError(t, db.First(&got, "id = ?", fine.ID).Error)
	assert.Equal(t, 50, got.Quantity, "no partial settlement")
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductParams{Title: "", Price: decimal.RequireFromString("5")})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductParams{Title: "Free", Price: decimal.Zero})
	require.Error(t, err)

	_, err = svc.CreateProduct(ctx, CreateProductParams{
		Title: "Negative Stock", Price: decimal.RequireFromString("5"), Quantity: -1,
	})
	require.Error(t, err)
}

func TestCreateSaleProductRequiresDiscountedPrice(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateSaleProduct(ctx, CreateProductParams{
		Title: "No Sale Price", Price: decimal.RequireFromString("100"),
	})
	require.Error(t, err)

	over := decimal.RequireFromString("120")
	_, err = svc.CreateSaleProduct(ctx, CreateProductParams{
		Title: "Overpriced Sale", Price: decimal.RequireFromString("100"), SalePrice: &over,
	})
	require.Error(t, err)
}

func TestUpdateProductAllowList(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()
	product := seedProduct(t, db, "Before", "10", 5)

	newTitle := "After Update"
	inactive := false
	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductParams{
		Title:    &newTitle,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "After Update", updated.Title)
	assert.Equal(t, "after-update", updated.Slug)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 5, updated.Quantity)

	salePrice := decimal.RequireFromString("5")
	_, err = svc.UpdateProduct(ctx, product.ID, UpdateProductParams{SalePrice: &salePrice})
	require.Error(t, err, "regular products must reject sale_price")
}

func TestListProductsFilterAndSort(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	cheap := seedProduct(t, db, "Cheap Phone", "100", 5)
	mid := seedProduct(t, db, "Mid Phone", "500", 5)
	for _, p := range []*models.Product{cheap, mid} {
		require.NoError(t, db.Model(p).Update("category", "phones").Error)
	}
	seedProduct(t, db, "Laptop", "900", 5)

	min := decimal.RequireFromString("50")
	products, meta, err := svc.ListProducts(ctx, ListFilter{
		Category: "phones",
		MinPrice: &min,
		Sort:     "price_asc",
		Page:     pageParams(1, 10),
	})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, int64(2), meta.Total)
	assert.Equal(t, "Cheap Phone", products[0].Title)

	_, _, err = svc.ListProducts(ctx, ListFilter{Sort: "evil; DROP TABLE", Page: pageParams(1, 10)})
	require.Error(t, err, "sort must be allow-listed")
}
