package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// InvalidFieldError reports a checkout payload field that failed validation.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service encapsulates checkout and order reads.
type Service struct {
	orders Repository
	now    func() time.Time
}

// NewService creates an order Service.
func NewService(orders Repository) *Service {
	return &Service{orders: orders, now: time.Now}
}

// PlaceOrder validates the request and runs the checkout transaction.
// Address fields are required except apartment details; whether the
// referenced area exists is checked inside the transaction.
func (s *Service) PlaceOrder(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	o, err := s.orders.Checkout(ctx, req, s.now())
	if err != nil {
		return nil, errors.Wrap(err, "checkout")
	}
	return o, nil
}

// List returns all of the user's orders, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]Summary, error) {
	sums, err := s.orders.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return sums, nil
}

// Recent returns the user's n newest orders.
func (s *Service) Recent(ctx context.Context, userID int64, n int) ([]Summary, error) {
	sums, err := s.orders.ListByUser(ctx, userID, n)
	if err != nil {
		return nil, errors.Wrap(err, "list recent orders")
	}
	return sums, nil
}

// Get returns one of the user's orders with its item snapshot and shipping
// address hydrated.
func (s *Service) Get(ctx context.Context, userID, orderID int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load order")
	}
	return o, nil
}

func validateCheckout(req CheckoutRequest) error {
	addr := req.ShippingAddress

	required := []struct {
		field string
		value string
	}{
		{"shipping_address.first_name", addr.FirstName},
		{"shipping_address.last_name", addr.LastName},
		{"shipping_address.phone_number", addr.PhoneNumber},
		{"shipping_address.street_address", addr.StreetAddress},
		{"payment_method", req.PaymentMethod},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &InvalidFieldError{Field: r.field, Reason: "this field is required"}
		}
	}

	if addr.AreaID <= 0 {
		return &InvalidFieldError{Field: "shipping_address.area_id", Reason: "a valid area is required"}
	}

	return nil
}
