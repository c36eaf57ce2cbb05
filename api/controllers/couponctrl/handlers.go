package couponctrl

import (
	"net/http"
	"time"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/params"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/validators"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/coupons"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

type createCouponRequest struct {
	Code     string    `json:"code" validate:"required"`
	Discount int       `json:"discount" validate:"required,min=1,max=100"`
	Expiry   time.Time `json:"expiry" validate:"required"`
}

type updateCouponRequest struct {
	Code     *string    `json:"code,omitempty"`
	Discount *int       `json:"discount,omitempty" validate:"omitempty,min=1,max=100"`
	Expiry   *time.Time `json:"expiry,omitempty"`
}

// Controller serves admin coupon management.
type Controller struct {
	svc  coupons.Service
	logg *logger.Logger
}

func NewController(svc coupons.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var req createCouponRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	coupon, err := c.svc.Create(r.Context(), coupons.CreateParams{
		Code:     req.Code,
		Discount: req.Discount,
		Expiry:   req.Expiry,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, coupon)
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	list, err := c.svc.List(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, list)
}

func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	id, err := params.UUID(r, "id")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	var req updateCouponRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	coupon, err := c.svc.Update(r.Context(), id, coupons.UpdateParams{
		Code:     req.Code,
		Discount: req.Discount,
		Expiry:   req.Expiry,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, coupon)
}

func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
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
