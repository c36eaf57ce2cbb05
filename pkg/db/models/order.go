package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/types"
)

// Order is the persisted result of checkout. Invariant:
// TotalAfterDiscount + DeliveryCharge == TotalWithDelivery.
// Orders are never deleted by the normal flow; the admin delete endpoint is
// an escape hatch.
type Order struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	Status             enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'Pending'"`
	CouponID           *uuid.UUID         `gorm:"column:coupon_id;type:uuid"`
	Subtotal           decimal.Decimal    `gorm:"column:subtotal;type:numeric(12,2);not null"`
	TotalAfterDiscount decimal.Decimal    `gorm:"column:total_after_discount;type:numeric(12,2);not null"`
	DeliveryCharge     decimal.Decimal    `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	TotalWithDelivery  decimal.Decimal    `gorm:"column:total_with_delivery;type:numeric(12,2);not null"`
	Shipping           types.ShippingInfo `gorm:"column:shipping;type:jsonb;serializer:json"`
	Items              []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentIntent      *PaymentIntent     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Order) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
