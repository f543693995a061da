// Package favorite implements per-user product favorites with toggle
// semantics.
package favorite

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

// ErrNotFound is returned when the favorite does not exist or belongs to
// another user.
var ErrNotFound = errors.New("favorite not found")

// Favorite marks a product as saved by a user.
type Favorite struct {
	ID        int64
	UserID    int64
	ProductID int64
	Product   *catalog.Product
	AddedAt   time.Time
}

// ToggleResult reports the outcome of a toggle call. Favorite is set only
// when the product was just added.
type ToggleResult struct {
	Favorited bool
	Favorite  *Favorite
}

// Repository defines persistence operations for favorites.
//
// Toggle adds the product and returns (favorite, true) when no favorite
// existed, otherwise removes it and returns (nil, false).
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Favorite, error)
	Toggle(ctx context.Context, userID, productID int64) (*Favorite, bool, error)
	Delete(ctx context.Context, userID, favoriteID int64) error
	IsFavorited(ctx context.Context, userID, productID int64) (bool, error)
}
