package order

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	lastReq CheckoutRequest
	lastAt  time.Time
	order   *Order
	sums    []Summary
	err     error
}

func (m *mockOrderRepo) Checkout(_ context.Context, req CheckoutRequest, at time.Time) (*Order, error) {
	m.lastReq = req
	m.lastAt = at
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, _ int64, limit int) ([]Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.sums) {
		return m.sums[:limit], nil
	}
	return m.sums, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, _, _ int64) (*Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

// --- Helpers ---

func validCheckout() CheckoutRequest {
	return CheckoutRequest{
		UserID: 42,
		ShippingAddress: ShippingDetails{
			FirstName:     "Mona",
			LastName:      "Hassan",
			PhoneNumber:   "+201001234567",
			StreetAddress: "12 Tahrir St",
			AreaID:        3,
		},
		PaymentMethod: "Cash on Delivery",
	}
}

// --- Tests ---

func TestPlaceOrder_RequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CheckoutRequest)
		wantField string
	}{
		{
			name:      "missing first name",
			mutate:    func(r *CheckoutRequest) { r.ShippingAddress.FirstName = "" },
			wantField: "shipping_address.first_name",
		},
		{
			name:      "missing last name",
			mutate:    func(r *CheckoutRequest) { r.ShippingAddress.LastName = "  " },
			wantField: "shipping_address.last_name",
		},
		{
			name:      "missing phone number",
			mutate:    func(r *CheckoutRequest) { r.ShippingAddress.PhoneNumber = "" },
			wantField: "shipping_address.phone_number",
		},
		{
			name:      "missing street address",
			mutate:    func(r *CheckoutRequest) { r.ShippingAddress.StreetAddress = "" },
			wantField: "shipping_address.street_address",
		},
		{
			name:      "missing payment method",
			mutate:    func(r *CheckoutRequest) { r.PaymentMethod = "" },
			wantField: "payment_method",
		},
		{
			name:      "missing area",
			mutate:    func(r *CheckoutRequest) { r.ShippingAddress.AreaID = 0 },
			wantField: "shipping_address.area_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckout()
			tt.mutate(&req)

			svc := NewService(&mockOrderRepo{})
			_, err := svc.PlaceOrder(context.Background(), req)

			var fieldErr *InvalidFieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantField, fieldErr.Field)
		})
	}
}

func TestPlaceOrder_RunsCheckoutWithClock(t *testing.T) {
	fixedNow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockOrderRepo{order: &Order{ID: 1, Status: StatusPending}}

	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }

	got, err := svc.PlaceOrder(context.Background(), validCheckout())
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, int64(42), repo.lastReq.UserID)
	assert.Equal(t, "Cash on Delivery", repo.lastReq.PaymentMethod)
	assert.True(t, repo.lastAt.Equal(fixedNow), "coupon re-validation instant should come from the service clock")
}

func TestPlaceOrder_PropagatesCartSentinels(t *testing.T) {
	for _, sentinel := range []error{ErrNoCart, ErrEmptyCart} {
		repo := &mockOrderRepo{err: sentinel}
		svc := NewService(repo)

		_, err := svc.PlaceOrder(context.Background(), validCheckout())
		require.ErrorIs(t, err, sentinel)
	}
}

func TestListAndRecent(t *testing.T) {
	repo := &mockOrderRepo{sums: []Summary{{ID: 3}, {ID: 2}, {ID: 1}}}
	svc := NewService(repo)

	all, err := svc.List(context.Background(), 42)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	recent, err := svc.Recent(context.Background(), 42, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(3), recent[0].ID)
}

func TestGet_UnknownOrder(t *testing.T) {
	svc := NewService(&mockOrderRepo{err: ErrNotFound})

	_, err := svc.Get(context.Background(), 42, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusDisplay(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "Pending Payment"},
		{StatusProcessing, "Processing"},
		{StatusShipped, "Shipped"},
		{StatusDelivered, "Delivered"},
		{StatusCancelled, "Cancelled"},
		{Status("UNKNOWN"), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Display())
	}
}

func TestItemLineTotal(t *testing.T) {
	item := Item{Quantity: 3, PriceAtPurchase: decimal.RequireFromString("19.99")}
	assert.True(t, decimal.RequireFromString("59.97").Equal(item.LineTotal()))
}
