package wishlistctrl

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/params"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/wishlist"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// Controller serves the authenticated user's wishlist.
type Controller struct {
	svc  wishlist.Service
	logg *logger.Logger
}

func NewController(svc wishlist.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	productID, err := params.UUID(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.Add(r.Context(), userID, productID); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "added"})
}

func (c *Controller) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	productID, err := params.UUID(r, "productID")
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	if err := c.svc.Remove(r.Context(), userID, productID); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.currentUser(w, r)
	if !ok {
		return
	}
	products, err := c.svc.List(r.Context(), userID)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, products)
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
