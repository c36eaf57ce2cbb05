package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Coupon is a single-use percentage discount. The code is stored uppercase
// and matched case-insensitively by normalizing lookups. A coupon is
// consumed (deleted) exactly once when an order using it settles.
type Coupon struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code     string     `gorm:"column:code;not null;uniqueIndex"`
	Discount int        `gorm:"column:discount;not null"`
	Expiry   time.Time  `gorm:"column:expiry;not null"`
	UserID   *uuid.UUID `gorm:"column:user_id;type:uuid"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Coupon) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
