package cartctrl

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/params"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/validators"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/cart"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Color     string `json:"color"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// Controller serves the authenticated user's cart.
type Controller struct {
	svc  cart.Service
	logg *logger.Logger
}

func NewController(svc cart.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, c.logg)
	if !ok {
		return
	}
	userCart, err := c.svc.Get(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, userCart)
}

func (c *Controller) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, c.logg)
	if !ok {
		return
	}
	var req addItemRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			apperrors.New(apperrors.CodeValidation, "product_id must be a UUID"))
		return
	}
	userCart, err := c.svc.AddOrUpdateItem(r.Context(), cart.AddItemParams{
		UserID:    userID,
		ProductID: productID,
		Quantity:  req.Quantity,
		Color:     req.Color,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, userCart)
}

func (c *Controller) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, c.logg)
	if !ok {
		return
	}
	productID, err := params.UUID(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	userCart, err := c.svc.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, userCart)
}

func (c *Controller) Empty(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, c.logg)
	if !ok {
		return
	}
	if err := c.svc.Empty(r.Context(), userID); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "emptied"})
}

func (c *Controller) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, c.logg)
	if !ok {
		return
	}
	var req applyCouponRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	userCart, err := c.svc.ApplyCoupon(r.Context(), userID, req.Code)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, userCart)
}

func currentUser(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), w, logg,
			apperrors.New(apperrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return identity.UserID, true
}
