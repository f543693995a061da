package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_percent, is_active, valid_from, valid_to, created_at`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE UPPER(code) = UPPER($1) AND is_active = TRUE`

	upsertCouponSQL = `INSERT INTO coupons (code, discount_percent, is_active, valid_from, valid_to)
		VALUES (UPPER($1), $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			discount_percent = EXCLUDED.discount_percent,
			is_active = EXCLUDED.is_active,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up an active coupon by its code. The SQL query applies
// UPPER() on both sides, so the code is passed as-is.
// Returns coupon.ErrInvalidCoupon when no matching active coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrInvalidCoupon
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &c, nil
}

// Upsert inserts or refreshes a coupon. Codes are stored uppercased so the
// UNIQUE constraint and the case-insensitive lookup index agree.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		c.Code, c.DiscountPercent, c.IsActive, c.ValidFrom, c.ValidTo)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.DiscountPercent, &c.IsActive,
		&c.ValidFrom, &c.ValidTo, &c.CreatedAt)
	return c, err
}
