package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
)

const (
	productColumns = `p.id, p.name, p.short_description, p.description, p.dimensions,
		p.original_price, p.sale_price, p.is_on_sale, p.rating, p.is_active,
		p.category_id, p.subcategory_id, c.name, s.name, p.created_at`

	productFrom = ` FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		LEFT JOIN subcategories s ON s.id = p.subcategory_id`

	getProductByIDSQL = `SELECT ` + productColumns + productFrom + ` WHERE p.id = $1`

	getActiveProductsByIDsSQL = `SELECT ` + productColumns + productFrom + `
		WHERE p.id = ANY($1) AND p.is_active = TRUE`

	suggestProductsSQL = `SELECT name FROM products
		WHERE is_active = TRUE AND name ILIKE $1
		ORDER BY name LIMIT $2`

	productColorsSQL = `SELECT pc.product_id, col.id, col.name, col.hex_code
		FROM product_colors pc
		JOIN colors col ON col.id = pc.color_id
		WHERE pc.product_id = ANY($1)
		ORDER BY col.name`

	productRoomsSQL = `SELECT r.id, r.name
		FROM product_rooms pr
		JOIN rooms r ON r.id = pr.room_id
		WHERE pr.product_id = $1
		ORDER BY r.name`

	productStylesSQL = `SELECT st.id, st.name
		FROM product_styles ps
		JOIN styles st ON st.id = ps.style_id
		WHERE ps.product_id = $1
		ORDER BY st.name`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns active products, newest first, with colors attached.
func (r *ProductRepository) List(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + productFrom + ` WHERE p.is_active = TRUE`
	var args []any

	if params.CategoryID != nil {
		args = append(args, *params.CategoryID)
		query += fmt.Sprintf(" AND p.category_id = $%d", len(args))
	}
	if params.Search != "" {
		args = append(args, "%"+escapeLike(params.Search)+"%")
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.short_description ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY p.created_at DESC, p.id DESC"
	if params.Limit > 0 {
		args = append(args, params.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if params.Offset > 0 {
		args = append(args, params.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	if err := attachColors(ctx, r.pool, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a single product with colors, rooms, and styles attached.
// Inactive products resolve too, so direct links keep working.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	products := []catalog.Product{p}
	if err := attachColors(ctx, r.pool, products); err != nil {
		return nil, err
	}
	p = products[0]

	if p.Rooms, err = collectTags(ctx, r.pool, productRoomsSQL, id, scanRoom); err != nil {
		return nil, err
	}
	if p.Styles, err = collectTags(ctx, r.pool, productStylesSQL, id, scanStyle); err != nil {
		return nil, err
	}

	return &p, nil
}

// GetActiveByIDs returns the active products matching any of the given ids.
func (r *ProductRepository) GetActiveByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getActiveProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return products, nil
}

// Suggest returns names of active products starting with the given prefix,
// ordered alphabetically.
func (r *ProductRepository) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, suggestProductsSQL, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("suggesting products: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("suggesting products: %w", err)
	}
	return names, nil
}

func collectTags[T any](ctx context.Context, pool *pgxpool.Pool, query string, productID int64, scan pgx.RowToFunc[T]) ([]T, error) {
	rows, err := pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("loading product tags: %w", err)
	}
	tags, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, fmt.Errorf("loading product tags: %w", err)
	}
	return tags, nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var (
		p       catalog.Product
		catName *string
		subName *string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.ShortDescription, &p.Description, &p.Dimensions,
		&p.OriginalPrice, &p.SalePrice, &p.IsOnSale, &p.Rating, &p.IsActive,
		&p.CategoryID, &p.SubcategoryID, &catName, &subName, &p.CreatedAt,
	)
	if catName != nil {
		p.CategoryName = *catName
	}
	if subName != nil {
		p.SubcategoryName = *subName
	}
	return p, err
}

func scanRoom(row pgx.CollectableRow) (catalog.Room, error) {
	var room catalog.Room
	err := row.Scan(&room.ID, &room.Name)
	return room, err
}

func scanStyle(row pgx.CollectableRow) (catalog.Style, error) {
	var style catalog.Style
	err := row.Scan(&style.ID, &style.Name)
	return style, err
}

// attachColors loads the color palette for every product in one query and
// distributes the rows by product id.
func attachColors(ctx context.Context, pool *pgxpool.Pool, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	idx := make(map[int64]*catalog.Product, len(products))
	for i := range products {
		ids[i] = products[i].ID
		idx[products[i].ID] = &products[i]
	}

	rows, err := pool.Query(ctx, productColorsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading product colors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			pid   int64
			color catalog.Color
		)
		if err := rows.Scan(&pid, &color.ID, &color.Name, &color.HexCode); err != nil {
			return fmt.Errorf("loading product colors: %w", err)
		}
		if p, ok := idx[pid]; ok {
			p.Colors = append(p.Colors, color)
		}
	}
	return rows.Err()
}

// escapeLike neutralises LIKE metacharacters in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}
