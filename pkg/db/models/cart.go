package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the user's working set of line items before order placement. One
// cart per user; created lazily on the first add and deleted on settlement
// or an explicit empty. CartTotal always equals the sum of line subtotals.
type Cart struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CartTotal          decimal.Decimal  `gorm:"column:cart_total;type:numeric(12,2);not null;default:0"`
	TotalAfterDiscount *decimal.Decimal `gorm:"column:total_after_discount;type:numeric(12,2)"`
	CouponID           *uuid.UUID       `gorm:"column:coupon_id;type:uuid"`
	Items              []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Cart) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
