package review

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

// Service implements review management.
type Service struct {
	reviews  Repository
	products catalog.Repository
}

// NewService creates a review Service.
func NewService(reviews Repository, products catalog.Repository) *Service {
	return &Service{reviews: reviews, products: products}
}

// ListForProduct returns a product's reviews, newest first. An unknown
// product yields an empty list.
func (s *Service) ListForProduct(ctx context.Context, productID int64) ([]Review, error) {
	revs, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return revs, nil
}

// Create adds the user's review of the product. The product must exist;
// whether it is active does not matter.
func (s *Service) Create(ctx context.Context, userID, productID int64, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "check product")
	}

	r := &Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, ErrAlreadyReviewed) {
			return nil, ErrAlreadyReviewed
		}
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// Update rewrites the user's own review. Reviews of other users are
// reported as not found.
func (s *Service) Update(ctx context.Context, userID, productID, reviewID int64, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	r, err := s.owned(ctx, userID, productID, reviewID)
	if err != nil {
		return nil, err
	}

	r.Rating = rating
	r.Comment = comment
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, errors.Wrap(err, "update review")
	}
	return r, nil
}

// Delete removes the user's own review.
func (s *Service) Delete(ctx context.Context, userID, productID, reviewID int64) error {
	r, err := s.owned(ctx, userID, productID, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, r.ID); err != nil {
		return errors.Wrap(err, "delete review")
	}
	return nil
}

func (s *Service) owned(ctx context.Context, userID, productID, reviewID int64) (*Review, error) {
	r, err := s.reviews.GetByID(ctx, productID, reviewID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load review")
	}
	if r.UserID != userID {
		return nil, ErrNotFound
	}
	return r, nil
}
