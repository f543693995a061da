// Package address manages a user's saved shipping addresses. A user can
// mark at most one address as default; the repository enforces that with a
// clear-then-set protocol inside a single transaction.
package address

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
)

var (
	// ErrNotFound is returned when the address does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("address not found")

	// ErrDefaultConflict is returned when a concurrent write raced this one
	// for the single default slot. Safe to retry.
	ErrDefaultConflict = errors.New("default address changed concurrently, retry")
)

// Address is a saved shipping address. Area is hydrated on reads and
// carries the shipping cost and governorate name.
type Address struct {
	ID               int64
	UserID           int64
	FirstName        string
	LastName         string
	PhoneNumber      string
	StreetAddress    string
	ApartmentDetails string
	AreaID           int64
	Area             *geo.Area
	IsDefault        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Input is the payload for creating or updating an address.
type Input struct {
	FirstName        string
	LastName         string
	PhoneNumber      string
	StreetAddress    string
	ApartmentDetails string
	AreaID           int64
	IsDefault        bool
}

// Repository defines persistence operations for addresses.
//
// All lookups are scoped to the owning user; a miss on either count returns
// ErrNotFound. ListByUser orders the default address first, then newest
// first. Create and Update insert with the default flag off and only then
// promote the row, so the partial unique index never trips mid-write.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Address, error)
	GetByID(ctx context.Context, userID, id int64) (*Address, error)
	Create(ctx context.Context, userID int64, in Input) (*Address, error)
	Update(ctx context.Context, userID, id int64, in Input) (*Address, error)
	Delete(ctx context.Context, userID, id int64) error
	SetDefault(ctx context.Context, userID, id int64) (*Address, error)
}
