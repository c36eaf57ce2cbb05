package enums

import "fmt"

// RatingTarget distinguishes which catalog entity a rating belongs to.
// Regular products and sale products aggregate their mean rating with
// different rounding rules, so the distinction matters beyond storage.
type RatingTarget string

const (
	RatingTargetProduct     RatingTarget = "product"
	RatingTargetSaleProduct RatingTarget = "sale_product"
)

var validRatingTargets = []RatingTarget{
	RatingTargetProduct,
	RatingTargetSaleProduct,
}

// String implements fmt.Stringer.
func (r RatingTarget) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RatingTarget.
func (r RatingTarget) IsValid() bool {
	for _, candidate := range validRatingTargets {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRatingTarget converts raw input into a RatingTarget.
func ParseRatingTarget(value string) (RatingTarget, error) {
	for _, candidate := range validRatingTargets {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rating target %q", value)
}
