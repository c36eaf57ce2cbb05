package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/repo"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db/models"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/pagination"
)

// ListFilter narrows the admin order listing.
type ListFilter struct {
	Status *enums.OrderStatus
	UserID *uuid.UUID
	Page   pagination.Params
}

// Repository persists orders, their line items and payment intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByTransactionUUID(ctx context.Context, transactionUUID string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// TransitionStatus flips the order status only if it currently holds
	// from. The boolean reports whether this caller won the transition.
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)

	SetIntentStatus(ctx context.Context, intentID uuid.UUID, status enums.PaymentStatus, gatewayRef *string) error
}

type repository struct {
	base repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{base: r.base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.base.DB(ctx).Create(order).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating order")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.base.DB(ctx).
		Preload("Items").
		Preload("PaymentIntent").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading order")
	}
	return &order, nil
}

func (r *repository) FindByTransactionUUID(ctx context.Context, transactionUUID string) (*models.Order, error) {
	var intent models.PaymentIntent
	err := r.base.DB(ctx).First(&intent, "transaction_uuid = ?", transactionUUID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "no order for transaction")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading payment intent")
	}
	return r.FindByID(ctx, intent.OrderID)
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	query := r.base.DB(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting orders")
	}

	var orders []models.Order
	err := query.
		Preload("Items").
		Preload("PaymentIntent").
		Order("created_at DESC").
		Limit(filter.Page.Limit).
		Offset(filter.Page.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, apperrors.Wrap(apperrors.CodeInternal, err, "listing orders")
	}
	return orders, total, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Order, int64, error) {
	return r.List(ctx, ListFilter{UserID: &userID, Page: page})
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.base.DB(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "deleting order")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "order not found")
	}
	return nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.base.DB(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, apperrors.Wrap(apperrors.CodeInternal, res.Error, "transitioning order status")
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) SetIntentStatus(ctx context.Context, intentID uuid.UUID, status enums.PaymentStatus, gatewayRef *string) error {
	updates := map[string]any{"status": status}
	if gatewayRef != nil {
		updates["gateway_ref_code"] = *gatewayRef
	}
	res := r.base.DB(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", intentID).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "updating payment intent")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "payment intent not found")
	}
	return nil
}
