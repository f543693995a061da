package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

const (
	reviewColumns = `rv.id, rv.user_id, u.email, rv.product_id, rv.rating, rv.comment, rv.created_at`

	reviewFrom = ` FROM reviews rv JOIN users u ON u.id = rv.user_id`

	listReviewsSQL = `SELECT ` + reviewColumns + reviewFrom +
		` WHERE rv.product_id = $1 ORDER BY rv.created_at DESC, rv.id DESC`

	getReviewSQL = `SELECT ` + reviewColumns + reviewFrom + ` WHERE rv.product_id = $1 AND rv.id = $2`

	insertReviewSQL = `INSERT INTO reviews (user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	getUserEmailSQL = `SELECT email FROM users WHERE id = $1`

	updateReviewSQL = `UPDATE reviews SET rating = $2, comment = $3 WHERE id = $1`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`

	// Default name of the unique (user_id, product_id) pair on reviews.
	reviewUniqueConstraint = "reviews_user_id_product_id_key"
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns the product's reviews, newest first, with author
// emails hydrated.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listReviewsSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	reviews, err := pgx.CollectRows(rows, scanReview)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}

// GetByID returns one review scoped to the product, or review.ErrNotFound.
func (r *ReviewRepository) GetByID(ctx context.Context, productID, reviewID int64) (*review.Review, error) {
	rows, err := r.pool.Query(ctx, getReviewSQL, productID, reviewID)
	if err != nil {
		return nil, fmt.Errorf("getting review %d: %w", reviewID, err)
	}
	rev, err := pgx.CollectExactlyOneRow(rows, scanReview)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, review.ErrNotFound
		}
		return nil, fmt.Errorf("getting review %d: %w", reviewID, err)
	}
	return &rev, nil
}

// Create persists a new review and fills in its id, timestamp, and author
// email. A second review by the same user for the same product returns
// review.ErrAlreadyReviewed.
func (r *ReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	err := r.pool.QueryRow(ctx, insertReviewSQL,
		rev.UserID, rev.ProductID, rev.Rating, rev.Comment,
	).Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, reviewUniqueConstraint) {
			return review.ErrAlreadyReviewed
		}
		return fmt.Errorf("creating review: %w", err)
	}

	if err := r.pool.QueryRow(ctx, getUserEmailSQL, rev.UserID).Scan(&rev.UserEmail); err != nil {
		return fmt.Errorf("getting review author: %w", err)
	}
	return nil
}

// Update rewrites the rating and comment of an existing review.
func (r *ReviewRepository) Update(ctx context.Context, rev *review.Review) error {
	tag, err := r.pool.Exec(ctx, updateReviewSQL, rev.ID, rev.Rating, rev.Comment)
	if err != nil {
		return fmt.Errorf("updating review %d: %w", rev.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

// Delete removes a review. Returns review.ErrNotFound when it is gone already.
func (r *ReviewRepository) Delete(ctx context.Context, reviewID int64) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, reviewID)
	if err != nil {
		return fmt.Errorf("deleting review %d: %w", reviewID, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}

func scanReview(row pgx.CollectableRow) (review.Review, error) {
	var rev review.Review
	err := row.Scan(&rev.ID, &rev.UserID, &rev.UserEmail, &rev.ProductID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
	return rev, err
}
