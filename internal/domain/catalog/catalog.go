// Package catalog defines the product catalog model: products with their
// sale pricing, and the dimension tables products are classified by.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/pricing"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category is a top-level product grouping.
type Category struct {
	ID   int64
	Name string
}

// Subcategory is a refinement of a category. Names are unique per category.
type Subcategory struct {
	ID         int64
	Name       string
	CategoryID int64
}

// Color is a palette entry. Hex codes are stored uppercase as #RRGGBB.
type Color struct {
	ID      int64
	Name    string
	HexCode string
}

// Room is a room tag products can be assigned to.
type Room struct {
	ID   int64
	Name string
}

// Style is a style tag products can be assigned to.
type Style struct {
	ID   int64
	Name string
}

// Product is a catalog item. Colors are populated on both list and detail
// reads; Rooms and Styles only on detail.
type Product struct {
	ID               int64
	Name             string
	ShortDescription string
	Description      string
	Dimensions       string
	OriginalPrice    decimal.Decimal
	SalePrice        *decimal.Decimal
	IsOnSale         bool
	Rating           decimal.Decimal
	IsActive         bool
	CategoryID       *int64
	SubcategoryID    *int64
	CategoryName     string
	SubcategoryName  string
	Colors           []Color
	Rooms            []Room
	Styles           []Style
	CreatedAt        time.Time
}

// EffectivePrice returns the price one unit currently sells for.
func (p *Product) EffectivePrice() decimal.Decimal {
	return pricing.EffectiveUnit(p.OriginalPrice, p.SalePrice, p.IsOnSale)
}

// ListParams narrows a catalog listing. A zero CategoryID pointer means no
// category filter; Search matches name and short description.
type ListParams struct {
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}

// Repository defines read operations for products.
//
// List returns active products only. GetByID resolves inactive products as
// well so direct links keep working after a product is pulled from sale.
// GetActiveByIDs is the strict variant cart and checkout use to validate
// references.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetActiveByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Suggest(ctx context.Context, prefix string, limit int) ([]string, error)
}

// TaxonomyRepository defines read operations for the dimension tables.
type TaxonomyRepository interface {
	Categories(ctx context.Context) ([]Category, error)
	Subcategories(ctx context.Context, categoryID *int64) ([]Subcategory, error)
	Rooms(ctx context.Context) ([]Room, error)
	Styles(ctx context.Context) ([]Style, error)
	Colors(ctx context.Context) ([]Color, error)
}
