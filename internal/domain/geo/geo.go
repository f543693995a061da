// Package geo models the shipping geography: governorates and the
// deliverable areas within them.
package geo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrAreaNotFound is returned when a referenced shipping area does not exist.
var ErrAreaNotFound = errors.New("area not found")

// Governorate is a top-level administrative region.
type Governorate struct {
	ID    int64
	Name  string
	Areas []Area
}

// Area is a deliverable district. ShippingCost is the flat delivery fee
// charged for orders shipped there.
type Area struct {
	ID              int64
	Name            string
	GovernorateID   int64
	GovernorateName string
	ShippingCost    decimal.Decimal
}

// Repository provides read access to the shipping geography.
type Repository interface {
	Governorates(ctx context.Context) ([]Governorate, error)
	Areas(ctx context.Context) ([]Area, error)
	GetArea(ctx context.Context, id int64) (*Area, error)
}
