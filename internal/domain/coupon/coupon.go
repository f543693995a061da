package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCoupon is returned when a coupon code does not resolve to
	// an active coupon.
	ErrInvalidCoupon = errors.New("invalid coupon code")
	// ErrCouponExpired is returned when a coupon is outside its validity window.
	ErrCouponExpired = errors.New("coupon expired")
)

// Coupon is a percentage discount that can be redeemed within a time window.
type Coupon struct {
	ID              int64
	Code            string
	DiscountPercent decimal.Decimal
	IsActive        bool
	ValidFrom       time.Time
	ValidTo         time.Time
	CreatedAt       time.Time
}

// UsableAt reports whether the coupon can be redeemed at the given instant.
// Both window boundaries are inclusive.
func (c *Coupon) UsableAt(t time.Time) bool {
	return c.IsActive && !t.Before(c.ValidFrom) && !t.After(c.ValidTo)
}

// Repository provides coupon lookups.
//
// FindByCode matches case-insensitively and only sees active coupons; it
// returns ErrInvalidCoupon when nothing matches.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
