// Package order implements checkout and the immutable order history it
// produces. An order snapshots names and prices at purchase time, so later
// catalog edits never change what a customer sees in their history.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
)

var (
	// ErrNotFound is returned when the order does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("order not found")
	// ErrNoCart is returned when checkout runs for a user without a cart.
	ErrNoCart = errors.New("user does not have an active cart")
	// ErrEmptyCart is returned when checkout runs against a cart with no items.
	ErrEmptyCart = errors.New("cannot checkout on an empty cart")
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// Display returns the customer-facing label for the status.
func (s Status) Display() string {
	switch s {
	case StatusPending:
		return "Pending Payment"
	case StatusProcessing:
		return "Processing"
	case StatusShipped:
		return "Shipped"
	case StatusDelivered:
		return "Delivered"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// Order is a placed order with its price breakdown frozen at checkout time.
type Order struct {
	ID                int64
	UserID            int64
	ShippingAddressID *int64
	ShippingAddress   *address.Address
	CartSubtotal      decimal.Decimal
	ShippingCost      decimal.Decimal
	CouponDiscount    decimal.Decimal
	FinalTotal        decimal.Decimal
	CouponCodeUsed    *string
	PaymentMethod     string
	PaymentStatus     string
	TransactionID     *string
	Status            Status
	CreatedAt         time.Time
	Items             []Item
}

// Item is one snapshotted order line. ProductID is nil once the product has
// been deleted from the catalog; the name and price survive regardless.
type Item struct {
	ID              int64
	OrderID         int64
	ProductID       *int64
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// LineTotal returns price at purchase times quantity.
func (i *Item) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity))).Round(2)
}

// Summary is the compact order representation used in listings.
type Summary struct {
	ID         int64
	FinalTotal decimal.Decimal
	Status     Status
	CreatedAt  time.Time
}

// ShippingDetails is the address payload submitted at checkout. It becomes
// a saved (non-default) address owned by the user.
type ShippingDetails struct {
	FirstName        string
	LastName         string
	PhoneNumber      string
	StreetAddress    string
	ApartmentDetails string
	AreaID           int64
}

// CheckoutRequest carries everything needed to place an order.
type CheckoutRequest struct {
	UserID          int64
	ShippingAddress ShippingDetails
	PaymentMethod   string
}

// Repository defines persistence operations for orders.
//
// Checkout runs the whole checkout protocol in one transaction: it locks
// and prices the cart, persists the shipping address and the order with its
// item snapshot, and deletes the cart. The at parameter fixes the instant
// coupons are re-validated against.
//
// ListByUser returns newest orders first; a non-positive limit means all.
type Repository interface {
	Checkout(ctx context.Context, req CheckoutRequest, at time.Time) (*Order, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]Summary, error)
	GetByID(ctx context.Context, userID, orderID int64) (*Order, error)
}
