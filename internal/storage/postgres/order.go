package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
	"github.com/Mohamed-Elfar/piano/internal/domain/order"
	"github.com/Mohamed-Elfar/piano/internal/domain/pricing"
)

const (
	orderColumns = `id, user_id, shipping_address_id, cart_subtotal, shipping_cost,
		coupon_discount, final_total, coupon_code_used, payment_method,
		payment_status, transaction_id, status, created_at`

	lockCartForCheckoutSQL = `SELECT id, coupon_id FROM carts WHERE user_id = $1 FOR UPDATE`

	listCheckoutLinesSQL = `SELECT ci.product_id, ci.quantity, p.name, p.original_price, p.sale_price, p.is_on_sale
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 ORDER BY ci.id`

	getAreaShippingSQL = `SELECT shipping_cost FROM areas WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders
		(user_id, shipping_address_id, cart_subtotal, shipping_cost, coupon_discount,
		 final_total, coupon_code_used, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, payment_status, status`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, product_name, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	deleteCartByIDSQL = `DELETE FROM carts WHERE id = $1`

	listOrdersSQL = `SELECT id, final_total, status, created_at FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 AND id = $2`

	listOrderItemsSQL = `SELECT id, order_id, product_id, product_name, quantity, price_at_purchase
		FROM order_items WHERE order_id = $1 ORDER BY id`

	getShippingAddressSQL = `SELECT ` + addressColumns + addressFrom + ` WHERE ad.id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Checkout places an order from the user's cart in one transaction. The
// cart row is locked first, so a concurrent checkout for the same user
// waits here and then fails with order.ErrNoCart once the winner has
// deleted the cart.
//
// Prices and the shipping cost are re-read inside the transaction, the
// shipping address is saved as a non-default address, order lines snapshot
// the product name and effective price, and the cart is deleted on success.
// A coupon that is no longer redeemable at the given instant is dropped
// silently rather than failing the checkout.
func (r *OrderRepository) Checkout(ctx context.Context, req order.CheckoutRequest, at time.Time) (*order.Order, error) {
	var o *order.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		o, err = checkout(ctx, tx, req, at)
		return err
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first. A non-positive limit
// returns all of them.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]order.Summary, error) {
	query := listOrdersSQL
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	sums, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Summary, error) {
		var (
			s      order.Summary
			status string
		)
		err := row.Scan(&s.ID, &s.FinalTotal, &status, &s.CreatedAt)
		s.Status = order.Status(status)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return sums, nil
}

// GetByID returns one of the user's orders with items and the shipping
// address hydrated. Returns order.ErrNotFound when the order does not
// exist or belongs to someone else.
func (r *OrderRepository) GetByID(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}

	rows, err = r.pool.Query(ctx, listOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	o.Items, err = pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}

	if o.ShippingAddressID != nil {
		rows, err = r.pool.Query(ctx, getShippingAddressSQL, *o.ShippingAddressID)
		if err != nil {
			return nil, fmt.Errorf("getting shipping address: %w", err)
		}
		ad, err := pgx.CollectExactlyOneRow(rows, scanAddress)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("getting shipping address: %w", err)
		}
		if err == nil {
			o.ShippingAddress = &ad
		}
	}
	return &o, nil
}

type checkoutLine struct {
	productID     int64
	quantity      int
	name          string
	originalPrice decimal.Decimal
	salePrice     *decimal.Decimal
	isOnSale      bool
}

func (l *checkoutLine) unitPrice() decimal.Decimal {
	return pricing.EffectiveUnit(l.originalPrice, l.salePrice, l.isOnSale)
}

func checkout(ctx context.Context, tx pgx.Tx, req order.CheckoutRequest, at time.Time) (*order.Order, error) {
	var (
		cartID   int64
		couponID *int64
	)
	err := tx.QueryRow(ctx, lockCartForCheckoutSQL, req.UserID).Scan(&cartID, &couponID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNoCart
		}
		return nil, fmt.Errorf("locking cart: %w", err)
	}

	rows, err := tx.Query(ctx, listCheckoutLinesSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (checkoutLine, error) {
		var l checkoutLine
		err := row.Scan(&l.productID, &l.quantity, &l.name, &l.originalPrice, &l.salePrice, &l.isOnSale)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing cart lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, order.ErrEmptyCart
	}

	var shipping decimal.Decimal
	addr := req.ShippingAddress
	err = tx.QueryRow(ctx, getAreaShippingSQL, addr.AreaID).Scan(&shipping)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, geo.ErrAreaNotFound
		}
		return nil, fmt.Errorf("resolving area %d: %w", addr.AreaID, err)
	}

	percent := decimal.Zero
	var couponCode *string
	if couponID != nil {
		rows, err := tx.Query(ctx, getCouponByIDSQL, *couponID)
		if err != nil {
			return nil, fmt.Errorf("getting cart coupon: %w", err)
		}
		cp, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
		if err != nil {
			return nil, fmt.Errorf("getting cart coupon: %w", err)
		}
		if cp.UsableAt(at) {
			percent = cp.DiscountPercent
			couponCode = &cp.Code
		}
	}

	items := make([]pricing.Item, len(lines))
	for i, l := range lines {
		items[i] = pricing.Item{ProductID: l.productID, UnitPrice: l.unitPrice(), Quantity: l.quantity}
	}
	quote := pricing.Compute(pricing.Subtotal(items), shipping, percent)

	var addressID int64
	err = tx.QueryRow(ctx, insertAddressSQL,
		req.UserID, addr.FirstName, addr.LastName, addr.PhoneNumber,
		addr.StreetAddress, addr.ApartmentDetails, addr.AreaID,
	).Scan(&addressID)
	if err != nil {
		return nil, fmt.Errorf("saving shipping address: %w", err)
	}

	o := &order.Order{
		UserID:            req.UserID,
		ShippingAddressID: &addressID,
		CartSubtotal:      quote.Subtotal,
		ShippingCost:      quote.ShippingCost,
		CouponDiscount:    quote.Discount,
		FinalTotal:        quote.Total,
		CouponCodeUsed:    couponCode,
		PaymentMethod:     req.PaymentMethod,
		CreatedAt:         at,
	}
	var status string
	err = tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.ShippingAddressID, o.CartSubtotal, o.ShippingCost,
		o.CouponDiscount, o.FinalTotal, o.CouponCodeUsed, o.PaymentMethod, o.CreatedAt,
	).Scan(&o.ID, &o.PaymentStatus, &status)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	o.Status = order.Status(status)

	o.Items = make([]order.Item, len(lines))
	for i, l := range lines {
		productID := l.productID
		item := order.Item{
			OrderID:         o.ID,
			ProductID:       &productID,
			ProductName:     l.name,
			Quantity:        l.quantity,
			PriceAtPurchase: l.unitPrice(),
		}
		err = tx.QueryRow(ctx, insertOrderItemSQL,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("creating order item %q: %w", item.ProductName, err)
		}
		o.Items[i] = item
	}

	if _, err := tx.Exec(ctx, deleteCartByIDSQL, cartID); err != nil {
		return nil, fmt.Errorf("deleting cart: %w", err)
	}
	return o, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.ShippingAddressID, &o.CartSubtotal, &o.ShippingCost,
		&o.CouponDiscount, &o.FinalTotal, &o.CouponCodeUsed, &o.PaymentMethod,
		&o.PaymentStatus, &o.TransactionID, &status, &o.CreatedAt)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.PriceAtPurchase)
	return it, err
}
