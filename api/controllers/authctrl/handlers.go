package authctrl

import (
	"net/http"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/middleware"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/responses"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/validators"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// Controller serves registration, login and session endpoints.
type Controller struct {
	svc  auth.Service
	logg *logger.Logger
}

func NewController(svc auth.Service, logg *logger.Logger) *Controller {
	return &Controller{svc: svc, logg: logg}
}

func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	user, err := c.svc.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusCreated, toUserResponse(user))
}

func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	user, tokens, err := c.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, loginResponse{
		User: toUserResponse(user),
		Tokens: tokenResponse{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
		},
	})
}

func (c *Controller) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	tokens, err := c.svc.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	})
}

func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), w, c.logg,
			apperrors.New(apperrors.CodeUnauthorized, "authentication required"))
		return
	}
	if err := c.svc.Logout(r.Context(), identity.AccessID); err != nil {
		responses.WriteError(r.Context(), w, c.logg, err)
		return
	}
	responses.WriteSuccess(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role.String(),
	}
}
