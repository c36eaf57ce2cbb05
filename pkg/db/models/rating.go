package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/enums"
)

// Rating stores one user's star rating for a catalog entity. A user has at
// most one rating per target; re-rating updates the row in place.
type Rating struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TargetType enums.RatingTarget `gorm:"column:target_type;type:text;not null;uniqueIndex:ratings_target_user_key"`
	TargetID   uuid.UUID          `gorm:"column:target_id;type:uuid;not null;uniqueIndex:ratings_target_user_key"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ratings_target_user_key"`
	Star       int                `gorm:"column:star;not null"`
	Comment    *string            `gorm:"column:comment"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *Rating) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
