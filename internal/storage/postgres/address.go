package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
)

const (
	addressColumns = `ad.id, ad.user_id, ad.first_name, ad.last_name, ad.phone_number,
		ad.street_address, ad.apartment_details, ad.area_id, ad.is_default,
		ad.created_at, ad.updated_at, a.name, a.governorate_id, g.name, a.shipping_cost`

	addressFrom = ` FROM addresses ad
		JOIN areas a ON a.id = ad.area_id
		JOIN governorates g ON g.id = a.governorate_id`

	listAddressesSQL = `SELECT ` + addressColumns + addressFrom +
		` WHERE ad.user_id = $1 ORDER BY ad.is_default DESC, ad.created_at DESC, ad.id DESC`

	getAddressSQL = `SELECT ` + addressColumns + addressFrom + ` WHERE ad.user_id = $1 AND ad.id = $2`

	insertAddressSQL = `INSERT INTO addresses
		(user_id, first_name, last_name, phone_number, street_address, apartment_details, area_id, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		RETURNING id`

	updateAddressSQL = `UPDATE addresses SET first_name = $3, last_name = $4, phone_number = $5,
		street_address = $6, apartment_details = $7, area_id = $8, is_default = $9, updated_at = now()
		WHERE user_id = $1 AND id = $2`

	deleteAddressSQL = `DELETE FROM addresses WHERE user_id = $1 AND id = $2`

	clearDefaultAddressSQL = `UPDATE addresses SET is_default = FALSE, updated_at = now()
		WHERE user_id = $1 AND is_default AND id <> $2`

	setDefaultAddressSQL = `UPDATE addresses SET is_default = TRUE, updated_at = now()
		WHERE user_id = $1 AND id = $2`

	defaultAddressIndex = "addresses_one_default_per_user_idx"
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
// A partial unique index allows at most one default address per user, so
// every write that touches the default flag clears the old default before
// setting the new one, inside a transaction.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// ListByUser returns the user's addresses, default first, then newest first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID int64) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx, listAddressesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	addrs, err := pgx.CollectRows(rows, scanAddress)
	if err != nil {
		return nil, fmt.Errorf("listing addresses: %w", err)
	}
	return addrs, nil
}

// GetByID returns one of the user's addresses, or address.ErrNotFound.
func (r *AddressRepository) GetByID(ctx context.Context, userID, id int64) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, userID, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	ad, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, fmt.Errorf("getting address %d: %w", id, err)
	}
	return &ad, nil
}

// Create saves a new address for the user. The row is inserted with the
// default flag off and promoted afterwards when requested, so the unique
// default index never trips mid-write.
func (r *AddressRepository) Create(ctx context.Context, userID int64, in address.Input) (*address.Address, error) {
	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insertAddressSQL,
			userID, in.FirstName, in.LastName, in.PhoneNumber,
			in.StreetAddress, in.ApartmentDetails, in.AreaID,
		).Scan(&id)
		if err != nil {
			if isForeignKeyViolation(err) {
				return geo.ErrAreaNotFound
			}
			return fmt.Errorf("creating address: %w", err)
		}
		if in.IsDefault {
			return promoteDefault(ctx, tx, userID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID, id)
}

// Update rewrites one of the user's addresses, including the default flag.
func (r *AddressRepository) Update(ctx context.Context, userID, id int64, in address.Input) (*address.Address, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if in.IsDefault {
			if _, err := tx.Exec(ctx, clearDefaultAddressSQL, userID, id); err != nil {
				return fmt.Errorf("clearing default address: %w", err)
			}
		}
		tag, err := tx.Exec(ctx, updateAddressSQL,
			userID, id, in.FirstName, in.LastName, in.PhoneNumber,
			in.StreetAddress, in.ApartmentDetails, in.AreaID, in.IsDefault)
		if err != nil {
			if isForeignKeyViolation(err) {
				return geo.ErrAreaNotFound
			}
			if isUniqueViolation(err, defaultAddressIndex) {
				return address.ErrDefaultConflict
			}
			return fmt.Errorf("updating address %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return address.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID, id)
}

// Delete removes one of the user's addresses, or returns address.ErrNotFound.
func (r *AddressRepository) Delete(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteAddressSQL, userID, id)
	if err != nil {
		return fmt.Errorf("deleting address %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

// SetDefault makes the address the user's default, demoting any other.
func (r *AddressRepository) SetDefault(ctx context.Context, userID, id int64) (*address.Address, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return promoteDefault(ctx, tx, userID, id)
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, userID, id)
}

// promoteDefault clears any other default address and flags the given one.
// Returns address.ErrNotFound when the address is not the user's.
func promoteDefault(ctx context.Context, tx pgx.Tx, userID, id int64) error {
	if _, err := tx.Exec(ctx, clearDefaultAddressSQL, userID, id); err != nil {
		return fmt.Errorf("clearing default address: %w", err)
	}
	tag, err := tx.Exec(ctx, setDefaultAddressSQL, userID, id)
	if err != nil {
		if isUniqueViolation(err, defaultAddressIndex) {
			return address.ErrDefaultConflict
		}
		return fmt.Errorf("setting default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var (
		ad   address.Address
		area geo.Area
	)
	err := row.Scan(&ad.ID, &ad.UserID, &ad.FirstName, &ad.LastName, &ad.PhoneNumber,
		&ad.StreetAddress, &ad.ApartmentDetails, &ad.AreaID, &ad.IsDefault,
		&ad.CreatedAt, &ad.UpdatedAt,
		&area.Name, &area.GovernorateID, &area.GovernorateName, &area.ShippingCost)
	if err != nil {
		return ad, err
	}
	area.ID = ad.AreaID
	ad.Area = &area
	return ad, nil
}
