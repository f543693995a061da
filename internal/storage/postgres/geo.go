package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
)

const (
	areaColumns = `a.id, a.name, a.governorate_id, g.name, a.shipping_cost`

	areaFrom = ` FROM areas a JOIN governorates g ON g.id = a.governorate_id`

	listGovernoratesSQL = `SELECT id, name FROM governorates ORDER BY name`

	listAreasSQL = `SELECT ` + areaColumns + areaFrom + ` ORDER BY g.name, a.name`

	getAreaSQL = `SELECT ` + areaColumns + areaFrom + ` WHERE a.id = $1`
)

var _ geo.Repository = (*GeoRepository)(nil)

// GeoRepository implements geo.Repository backed by PostgreSQL.
type GeoRepository struct {
	pool *pgxpool.Pool
}

// NewGeoRepository returns a GeoRepository that uses the given pool.
func NewGeoRepository(pool *pgxpool.Pool) *GeoRepository {
	return &GeoRepository{pool: pool}
}

// Governorates returns all governorates with their areas nested, both
// ordered by name.
func (r *GeoRepository) Governorates(ctx context.Context) ([]geo.Governorate, error) {
	rows, err := r.pool.Query(ctx, listGovernoratesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing governorates: %w", err)
	}
	govs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (geo.Governorate, error) {
		var g geo.Governorate
		err := row.Scan(&g.ID, &g.Name)
		return g, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing governorates: %w", err)
	}

	areas, err := r.Areas(ctx)
	if err != nil {
		return nil, err
	}

	byGov := make(map[int64][]geo.Area, len(govs))
	for _, a := range areas {
		byGov[a.GovernorateID] = append(byGov[a.GovernorateID], a)
	}
	for i := range govs {
		govs[i].Areas = byGov[govs[i].ID]
	}
	return govs, nil
}

// Areas returns all areas with their governorate names.
func (r *GeoRepository) Areas(ctx context.Context) ([]geo.Area, error) {
	rows, err := r.pool.Query(ctx, listAreasSQL)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	areas, err := pgx.CollectRows(rows, scanArea)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	return areas, nil
}

// GetArea returns one area, or geo.ErrAreaNotFound.
func (r *GeoRepository) GetArea(ctx context.Context, id int64) (*geo.Area, error) {
	rows, err := r.pool.Query(ctx, getAreaSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting area %d: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanArea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, geo.ErrAreaNotFound
		}
		return nil, fmt.Errorf("getting area %d: %w", id, err)
	}
	return &a, nil
}

func scanArea(row pgx.CollectableRow) (geo.Area, error) {
	var a geo.Area
	err := row.Scan(&a.ID, &a.Name, &a.GovernorateID, &a.GovernorateName, &a.ShippingCost)
	return a, err
}
