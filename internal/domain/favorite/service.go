package favorite

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

// Service implements favorite management.
type Service struct {
	favorites Repository
	products  catalog.Repository
}

// NewService creates a favorite Service.
func NewService(favorites Repository, products catalog.Repository) *Service {
	return &Service{favorites: favorites, products: products}
}

// List returns the user's favorites with products hydrated.
func (s *Service) List(ctx context.Context, userID int64) ([]Favorite, error) {
	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list favorites")
	}
	return favs, nil
}

// Toggle adds the product to the user's favorites, or removes it when
// already present. Inactive products can still be toggled; only a product
// that does not exist at all is rejected.
func (s *Service) Toggle(ctx context.Context, userID, productID int64) (*ToggleResult, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrap(err, "check product")
	}

	fav, added, err := s.favorites.Toggle(ctx, userID, productID)
	if err != nil {
		return nil, errors.Wrap(err, "toggle favorite")
	}
	if fav != nil {
		fav.Product = p
	}

	return &ToggleResult{Favorited: added, Favorite: fav}, nil
}

// Remove deletes a favorite by its own id.
func (s *Service) Remove(ctx context.Context, userID, favoriteID int64) error {
	return s.favorites.Delete(ctx, userID, favoriteID)
}

// IsFavorited reports whether the user has favorited the product.
func (s *Service) IsFavorited(ctx context.Context, userID, productID int64) (bool, error) {
	return s.favorites.IsFavorited(ctx, userID, productID)
}
