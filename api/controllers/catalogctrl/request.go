package catalogctrl

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
)

type createProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Price       string   `json:"price" validate:"required"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	Colors      []string `json:"colors"`
	SalePrice   *string  `json:"sale_price,omitempty"`
}

type updateProductRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Brand       *string  `json:"brand,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Price       *string  `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	SalePrice   *string  `json:"sale_price,omitempty"`
}

type rateRequest struct {
	Star    int     `json:"star" validate:"required,min=1,max=5"`
	Comment *string `json:"comment,omitempty"`
}

func parseMoney(field, raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.New(apperrors.CodeValidation, field+" must be a decimal number")
	}
	return value, nil
}

func parseOptionalMoney(field string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := parseMoney(field, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func listFilterFromQuery(r *http.Request) (catalog.ListFilter, error) {
	query := r.URL.Query()
	filter := catalog.ListFilter{
		Category: query.Get("category"),
		Brand:    query.Get("brand"),
		Sort:     query.Get("sort"),
		Page:     pagination.FromQuery(query),
	}
	var err error
	if raw := query.Get("min_price"); raw != "" {
		if filter.MinPrice, err = parseOptionalMoney("min_price", &raw); err != nil {
			return catalog.ListFilter{}, err
		}
	}
	if raw := query.Get("max_price"); raw != "" {
		if filter.MaxPrice, err = parseOptionalMoney("max_price", &raw); err != nil {
			return catalog.ListFilter{}, err
		}
	}
	return filter, nil
}
