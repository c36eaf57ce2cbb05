package coupons

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
)

// CreateParams describes a new coupon.
type CreateParams struct {
	Code     string
	Discount int
	Expiry   time.Time
	UserID   *uuid.UUID
}

// UpdateParams is the allow-list of mutable coupon fields.
type UpdateParams struct {
	Code     *string
	Discount *int
	Expiry   *time.Time
}

// Service manages coupons and resolves codes at checkout time.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindValidByCode resolves a code to a coupon that is usable right now.
	FindValidByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repository Repository, logg *logger.Logger) (Service, error) {
	if repository == nil {
		return nil, errors.New("coupon repository is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &service{repo: repository, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Coupon, error) {
	if NormalizeCode(params.Code) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "code is required")
	}
	if params.Discount <= 0 || params.Discount > 100 {
		return nil, apperrors.New(apperrors.CodeValidation, "discount must be between 1 and 100")
	}
	if !params.Expiry.After(s.now()) {
		return nil, apperrors.New(apperrors.CodeValidation, "expiry must be in the future")
	}
	coupon := &models.Coupon{
		Code:     params.Code,
		Discount: params.Discount,
		Expiry:   params.Expiry,
		UserID:   params.UserID,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Coupon, error) {
	updates := map[string]any{}
	if params.Code != nil {
		if NormalizeCode(*params.Code) == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "code must not be empty")
		}
		updates["code"] = *params.Code
	}
	if params.Discount != nil {
		if *params.Discount <= 0 || *params.Discount > 100 {
			return nil, apperrors.New(apperrors.CodeValidation, "discount must be between 1 and 100")
		}
		updates["discount"] = *params.Discount
	}
	if params.Expiry != nil {
		if !params.Expiry.After(s.now()) {
			return nil, apperrors.New(apperrors.CodeValidation, "expiry must be in the future")
		}
		updates["expiry"] = *params.Expiry
	}
	if len(updates) == 0 {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.Update(ctx, id, updates)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) FindValidByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if appErr := apperrors.As(err); appErr != nil && appErr.Code() == apperrors.CodeNotFound {
			return nil, apperrors.New(apperrors.CodeInvalidCoupon, "coupon not found")
		}
		return nil, err
	}
	if err := ValidateForUse(coupon, s.now()); err != nil {
		return nil, err
	}
	return coupon, nil
}
