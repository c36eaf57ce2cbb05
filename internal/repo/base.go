package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base provides the shared gorm handle plumbing for repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the handle scoped to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	return b.db.WithContext(ctx)
}

// WithTx returns a copy of the base bound to the given transaction.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}
