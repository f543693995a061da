package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

const (
	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name`

	listSubcategoriesSQL = `SELECT id, name, category_id FROM subcategories ORDER BY name`

	listSubcategoriesByCategorySQL = `SELECT id, name, category_id FROM subcategories
		WHERE category_id = $1 ORDER BY name`

	listRoomsSQL = `SELECT id, name FROM rooms ORDER BY name`

	listStylesSQL = `SELECT id, name FROM styles ORDER BY name`

	listColorsSQL = `SELECT id, name, hex_code FROM colors ORDER BY name`
)

var _ catalog.TaxonomyRepository = (*TaxonomyRepository)(nil)

// TaxonomyRepository implements catalog.TaxonomyRepository backed by
// PostgreSQL.
type TaxonomyRepository struct {
	pool *pgxpool.Pool
}

// NewTaxonomyRepository returns a TaxonomyRepository that uses the given pool.
func NewTaxonomyRepository(pool *pgxpool.Pool) *TaxonomyRepository {
	return &TaxonomyRepository{pool: pool}
}

func (r *TaxonomyRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

// Subcategories lists all subcategories, or only those of one category
// when categoryID is non-nil.
func (r *TaxonomyRepository) Subcategories(ctx context.Context, categoryID *int64) ([]catalog.Subcategory, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if categoryID != nil {
		rows, err = r.pool.Query(ctx, listSubcategoriesByCategorySQL, *categoryID)
	} else {
		rows, err = r.pool.Query(ctx, listSubcategoriesSQL)
	}
	if err != nil {
		return nil, fmt.Errorf("listing subcategories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Subcategory, error) {
		var s catalog.Subcategory
		err := row.Scan(&s.ID, &s.Name, &s.CategoryID)
		return s, err
	})
}

func (r *TaxonomyRepository) Rooms(ctx context.Context) ([]catalog.Room, error) {
	rows, err := r.pool.Query(ctx, listRoomsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	return pgx.CollectRows(rows, scanRoom)
}

func (r *TaxonomyRepository) Styles(ctx context.Context) ([]catalog.Style, error) {
	rows, err := r.pool.Query(ctx, listStylesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing styles: %w", err)
	}
	return pgx.CollectRows(rows, scanStyle)
}

func (r *TaxonomyRepository) Colors(ctx context.Context) ([]catalog.Color, error) {
	rows, err := r.pool.Query(ctx, listColorsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing colors: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Color, error) {
		var c catalog.Color
		err := row.Scan(&c.ID, &c.Name, &c.HexCode)
		return c, err
	})
}
