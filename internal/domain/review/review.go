// Package review implements product reviews. A user can review each
// product once; editing and deleting are restricted to the author.
package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when the review does not exist, and also when
	// it exists but belongs to someone else, so ownership is never revealed.
	ErrNotFound = errors.New("review not found")
	// ErrAlreadyReviewed is returned on a second review for the same product.
	ErrAlreadyReviewed = errors.New("you have already reviewed this product")
	// ErrInvalidRating is returned for ratings outside 1 to 5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
)

// Review is a user's rating and comment on a product. UserEmail is
// hydrated on reads for display.
type Review struct {
	ID        int64
	UserID    int64
	UserEmail string
	ProductID int64
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Repository defines persistence operations for reviews.
//
// Create reports a violated one-review-per-product constraint as
// ErrAlreadyReviewed. GetByID is scoped to the product so review ids from
// other products miss.
type Repository interface {
	ListByProduct(ctx context.Context, productID int64) ([]Review, error)
	GetByID(ctx context.Context, productID, reviewID int64) (*Review, error)
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
	Delete(ctx context.Context, reviewID int64) error
}
