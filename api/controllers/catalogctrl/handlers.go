package catalogctrl

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/params"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/validators"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// Controller serves the public catalog plus admin product management.
type Controller struct {
	svc  catalog.Service
	logg *logger.Logger
}

func NewController(svc catalog.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	products, meta, err := c.svc.ListProducts(r.Context(), filter)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": meta,
	})
}

func (c *Controller) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	product, err := c.svc.GetProductBySlug(r.Context(), slug)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, product)
}

func (c *Controller) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	createParams, err := toCreateParams(req)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	product, err := c.svc.CreateProduct(r.Context(), createParams)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, product)
}

func (c *Controller) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var req updateProductRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	updateParams, err := toUpdateParams(req)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	product, err := c.svc.UpdateProduct(r.Context(), id, updateParams)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, product)
}

func (c *Controller) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.DeleteProduct(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *Controller) ListSaleProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	products, meta, err := c.svc.ListSaleProducts(r.Context(), filter)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": meta,
	})
}

func (c *Controller) GetSaleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	product, err := c.svc.GetSaleProduct(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, product)
}

func (c *Controller) CreateSaleProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	createParams, err := toCreateParams(req)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	product, err := c.svc.CreateSaleProduct(r.Context(), createParams)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, product)
}

func (c *Controller) UpdateSaleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var req updateProductRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	updateParams, err := toUpdateParams(req)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	product, err := c.svc.UpdateSaleProduct(r.Context(), id, updateParams)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, product)
}

func (c *Controller) DeleteSaleProduct(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.DeleteSaleProduct(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Rate handles both product and sale-product ratings; the target type comes
// from the route.
func (c *Controller) Rate(target enums.RatingTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), w, c.logg,
				apperrors.New(apperrors.CodeUnauthorized, "authentication required"))
			return
		}
		id, err := params.UUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, err)
			return
		}
		var req rateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, c.logg, err)
			return
		}
		err = c.svc.Rate(r.Context(), catalog.RateParams{
			Target:   target,
			TargetID: id,
			UserID:   identity.UserID,
			Star:     req.Star,
			Comment:  req.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, err)
			return
		}
		responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "rated"})
	}
}

func (c *Controller) ListRatings(target enums.RatingTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := params.UUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, err)
			return
		}
		ratings, err := c.svc.ListRatings(r.Context(), target, id)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg, err)
			return
		}
		responses.WriteSuccess(w, http.StatusOK, ratings)
	}
}

func toCreateParams(req createProductRequest) (catalog.CreateProductParams, error) {
	price, err := parseMoney("price", req.Price)
	if err != nil {
		return catalog.CreateProductParams{}, err
	}
	salePrice, err := parseOptionalMoney("sale_price", req.SalePrice)
	if err != nil {
		return catalog.CreateProductParams{}, err
	}
	return catalog.CreateProductParams{
		Title:       req.Title,
		Description: req.Description,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       price,
		Quantity:    req.Quantity,
		Colors:      req.Colors,
		SalePrice:   salePrice,
	}, nil
}

func toUpdateParams(req updateProductRequest) (catalog.UpdateProductParams, error) {
	price, err := parseOptionalMoney("price", req.Price)
	if err != nil {
		return catalog.UpdateProductParams{}, err
	}
	salePrice, err := parseOptionalMoney("sale_price", req.SalePrice)
	if err != nil {
		return catalog.UpdateProductParams{}, err
	}
	return catalog.UpdateProductParams{
		Title:       req.Title,
		Description: req.Description,
		Brand:       req.Brand,
		Category:    req.Category,
		Price:       price,
		Quantity:    req.Quantity,
		Colors:      req.Colors,
		IsActive:    req.IsActive,
		SalePrice:   salePrice,
	}, nil
}
