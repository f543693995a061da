// Package cart implements the per-user shopping cart, including coupon
// attachment and quantity management.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
)

var (
	// ErrNotFound is returned when the user has no cart.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when the cart has no line for the product.
	ErrItemNotFound = errors.New("cart item not found")
	// ErrInvalidQuantity is returned for quantities below one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Cart is a user's open cart. Every user has at most one.
type Cart struct {
	ID        int64
	UserID    int64
	Coupon    *coupon.Coupon
	Items     []Item
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is one cart line. Product is hydrated on reads.
type Item struct {
	ID        int64
	ProductID int64
	Quantity  int
	Product   *catalog.Product
}

// View is a cart priced for display. Cart is nil when the user has no cart
// yet; Subtotal and Discount are zero in that case.
type View struct {
	Cart     *Cart
	Subtotal decimal.Decimal
	Discount decimal.Decimal
}

// Repository defines persistence operations for carts.
//
// GetByUser hydrates items, their products, and the attached coupon, and
// returns ErrNotFound when the user has no cart. GetOrCreate returns the
// bare cart row. AddItem creates the line or increments an existing one.
// SetItemQuantity and RemoveItem return ErrItemNotFound when no line
// matches. ClearItems removes every line but keeps the cart row.
type Repository interface {
	GetByUser(ctx context.Context, userID int64) (*Cart, error)
	GetOrCreate(ctx context.Context, userID int64) (*Cart, error)
	AddItem(ctx context.Context, cartID, productID int64, quantity int) error
	SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, cartID, productID int64) error
	SetCoupon(ctx context.Context, cartID int64, couponID *int64) error
	ClearItems(ctx context.Context, userID int64) error
}
