package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
)

const (
	listFavoritesSQL = `SELECT id, user_id, product_id, created_at FROM favorites
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	insertFavoriteSQL = `INSERT INTO favorites (user_id, product_id) VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING id, user_id, product_id, created_at`

	deleteFavoriteByProductSQL = `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`

	deleteFavoriteSQL = `DELETE FROM favorites WHERE user_id = $1 AND id = $2`

	isFavoritedSQL = `SELECT EXISTS(SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`
)

var _ favorite.Repository = (*FavoriteRepository)(nil)

// FavoriteRepository implements favorite.Repository backed by PostgreSQL.
type FavoriteRepository struct {
	pool *pgxpool.Pool
}

// NewFavoriteRepository returns a FavoriteRepository that uses the given pool.
func NewFavoriteRepository(pool *pgxpool.Pool) *FavoriteRepository {
	return &FavoriteRepository{pool: pool}
}

// ListByUser returns the user's favorites, newest first, with products
// hydrated.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]favorite.Favorite, error) {
	rows, err := r.pool.Query(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	favs, err := pgx.CollectRows(rows, scanFavorite)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	if len(favs) == 0 {
		return favs, nil
	}

	ids := make([]int64, len(favs))
	for i, f := range favs {
		ids[i] = f.ProductID
	}
	rows, err = r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting favorite products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting favorite products: %w", err)
	}
	if err := attachColors(ctx, r.pool, products); err != nil {
		return nil, err
	}

	byID := make(map[int64]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range favs {
		favs[i].Product = byID[favs[i].ProductID]
	}
	return favs, nil
}

// Toggle adds the product to the user's favorites, or removes it when
// already present. The insert relies on the unique user and product pair:
// a conflict means the favorite exists and should be removed instead.
func (r *FavoriteRepository) Toggle(ctx context.Context, userID, productID int64) (*favorite.Favorite, bool, error) {
	rows, err := r.pool.Query(ctx, insertFavoriteSQL, userID, productID)
	if err != nil {
		return nil, false, fmt.Errorf("adding favorite: %w", err)
	}

	fav, err := pgx.CollectExactlyOneRow(rows, scanFavorite)
	if err == nil {
		return &fav, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("adding favorite: %w", err)
	}

	if _, err := r.pool.Exec(ctx, deleteFavoriteByProductSQL, userID, productID); err != nil {
		return nil, false, fmt.Errorf("removing favorite: %w", err)
	}
	return nil, false, nil
}

// Delete removes one of the user's favorites by its id. Returns
// favorite.ErrNotFound when no such favorite exists.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, favoriteID int64) error {
	tag, err := r.pool.Exec(ctx, deleteFavoriteSQL, userID, favoriteID)
	if err != nil {
		return fmt.Errorf("deleting favorite %d: %w", favoriteID, err)
	}
	if tag.RowsAffected() == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

// IsFavorited reports whether the user has favorited the product.
func (r *FavoriteRepository) IsFavorited(ctx context.Context, userID, productID int64) (bool, error) {
	var favorited bool
	err := r.pool.QueryRow(ctx, isFavoritedSQL, userID, productID).Scan(&favorited)
	if err != nil {
		return false, fmt.Errorf("checking favorite: %w", err)
	}
	return favorited, nil
}

func scanFavorite(row pgx.CollectableRow) (favorite.Favorite, error) {
	var f favorite.Favorite
	err := row.Scan(&f.ID, &f.UserID, &f.ProductID, &f.AddedAt)
	return f, err
}
