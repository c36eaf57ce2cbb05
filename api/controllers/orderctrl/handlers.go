package orderctrl

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/params"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/validators"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/orders"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/types"
)

type createOrderRequest struct {
	PaymentMethod string             `json:"payment_method" validate:"required"`
	Shipping      types.ShippingInfo `json:"shipping" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Controller serves checkout and order history for buyers, and order
// management for admins.
type Controller struct {
	svc  orders.Service
	logg *logger.Logger
}

func NewController(svc orders.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	method, err := enums.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			apperrors.New(apperrors.CodeValidation, "unknown payment method"))
		return
	}
	result, err := c.svc.Create(r.Context(), orders.CreateParams{
		UserID:   userID,
		Method:   method,
		Shipping: req.Shipping,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	payload := map[string]any{"order": result.Order}
	if result.PaymentForm != nil {
		payload["payment"] = result.PaymentForm
	}
	responses.WriteSuccess(w, http.StatusCreated, payload)
}

func (c *Controller) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	page := pagination.FromQuery(r.URL.Query())
	list, meta, err := c.svc.ListForUser(r.Context(), userID, page)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]any{
		"orders":     list,
		"pagination": meta,
	})
}

func (c *Controller) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	order, err := c.svc.GetForUser(r.Context(), id, userID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

func (c *Controller) AdminList(w http.ResponseWriter, r *http.Request) {
	filter := orders.ListFilter{Page: pagination.FromQuery(r.URL.Query())}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, c.logg,
				apperrors.New(apperrors.CodeValidation, "unknown order status"))
			return
		}
		filter.Status = &status
	}
	list, meta, err := c.svc.List(r.Context(), filter)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]any{
		"orders":     list,
		"pagination": meta,
	})
}

func (c *Controller) AdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	order, err := c.svc.Get(r.Context(), id)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

func (c *Controller) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var req updateStatusRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	status, err := enums.ParseOrderStatus(req.Status)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg,
			apperrors.New(apperrors.CodeValidation, "unknown order status"))
		return
	}
	order, err := c.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, order)
}

func (c *Controller) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.Delete(r.Context(), id); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (c *Controller) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), w, c.logg,
			apperrors.New(apperrors.CodeUnauthorized, "authentication required"))
		return uuid.Nil, false
	}
	return identity.UserID, true
}
