package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

const (
	cartColumns = `id, user_id, coupon_id, created_at, updated_at`

	getCartByUserSQL = `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1`

	insertCartSQL = `INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + cartColumns

	listCartItemsSQL = `SELECT id, product_id, quantity FROM cart_items
		WHERE cart_id = $1 ORDER BY id`

	getProductsByIDsSQL = `SELECT ` + productColumns + productFrom + ` WHERE p.id = ANY($1)`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	addCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`

	setCartItemQuantitySQL = `UPDATE cart_items SET quantity = $3
		WHERE cart_id = $1 AND product_id = $2`

	removeCartItemSQL = `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`

	setCartCouponSQL = `UPDATE carts SET coupon_id = $2, updated_at = now() WHERE id = $1`

	clearCartItemsSQL = `DELETE FROM cart_items USING carts
		WHERE cart_items.cart_id = carts.id AND carts.user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetByUser returns the user's cart with items, their products, and the
// attached coupon hydrated. Returns cart.ErrNotFound when the user has
// no cart.
func (r *CartRepository) GetByUser(ctx context.Context, userID int64) (*cart.Cart, error) {
	c, couponID, err := r.getBare(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.hydrateItems(ctx, c); err != nil {
		return nil, err
	}

	if couponID != nil {
		rows, err := r.pool.Query(ctx, getCouponByIDSQL, *couponID)
		if err != nil {
			return nil, fmt.Errorf("getting cart coupon: %w", err)
		}
		cp, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
		if err != nil {
			return nil, fmt.Errorf("getting cart coupon: %w", err)
		}
		c.Coupon = &cp
	}
	return c, nil
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
// The returned cart is bare; use GetByUser for a hydrated view.
func (r *CartRepository) GetOrCreate(ctx context.Context, userID int64) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, insertCartSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}

	c, _, err := collectCartRow(rows)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("creating cart: %w", err)
	}

	// The insert hit the unique user constraint, so the cart already exists.
	c, _, err = r.getBare(ctx, userID)
	return c, err
}

// AddItem adds quantity of the product to the cart, incrementing the
// existing line if one is present.
func (r *CartRepository) AddItem(ctx context.Context, cartID, productID int64, quantity int) error {
	if _, err := r.pool.Exec(ctx, addCartItemSQL, cartID, productID, quantity); err != nil {
		return fmt.Errorf("adding cart item: %w", err)
	}
	return nil
}

// SetItemQuantity replaces the quantity on the cart line for the product.
// Returns cart.ErrItemNotFound when no such line exists.
func (r *CartRepository) SetItemQuantity(ctx context.Context, cartID, productID int64, quantity int) error {
	tag, err := r.pool.Exec(ctx, setCartItemQuantitySQL, cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("updating cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes the cart line for the product. Returns
// cart.ErrItemNotFound when no such line exists.
func (r *CartRepository) RemoveItem(ctx context.Context, cartID, productID int64) error {
	tag, err := r.pool.Exec(ctx, removeCartItemSQL, cartID, productID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// SetCoupon attaches the coupon to the cart, or detaches any attached
// coupon when couponID is nil.
func (r *CartRepository) SetCoupon(ctx context.Context, cartID int64, couponID *int64) error {
	if _, err := r.pool.Exec(ctx, setCartCouponSQL, cartID, couponID); err != nil {
		return fmt.Errorf("setting cart coupon: %w", err)
	}
	return nil
}

// ClearItems removes every line from the user's cart, keeping the cart row.
// Doing so for a user without a cart is a no-op.
func (r *CartRepository) ClearItems(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, clearCartItemsSQL, userID); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

func (r *CartRepository) getBare(ctx context.Context, userID int64) (*cart.Cart, *int64, error) {
	rows, err := r.pool.Query(ctx, getCartByUserSQL, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("getting cart: %w", err)
	}

	c, couponID, err := collectCartRow(rows)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, cart.ErrNotFound
		}
		return nil, nil, fmt.Errorf("getting cart: %w", err)
	}
	return c, couponID, nil
}

func (r *CartRepository) hydrateItems(ctx context.Context, c *cart.Cart) error {
	rows, err := r.pool.Query(ctx, listCartItemsSQL, c.ID)
	if err != nil {
		return fmt.Errorf("listing cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.ID, &it.ProductID, &it.Quantity)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("listing cart items: %w", err)
	}
	if len(items) == 0 {
		c.Items = items
		return nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ProductID
	}
	rows, err = r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return fmt.Errorf("getting cart products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return fmt.Errorf("getting cart products: %w", err)
	}
	if err := attachColors(ctx, r.pool, products); err != nil {
		return err
	}

	byID := make(map[int64]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
	}
	c.Items = items
	return nil
}

func collectCartRow(rows pgx.Rows) (*cart.Cart, *int64, error) {
	var couponID *int64
	c, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (cart.Cart, error) {
		var c cart.Cart
		err := row.Scan(&c.ID, &c.UserID, &couponID, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
	if err != nil {
		return nil, nil, err
	}
	return &c, couponID, nil
}
