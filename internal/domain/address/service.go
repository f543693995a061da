package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
)

// InvalidFieldError reports an address payload field that failed validation.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service implements address management for a user.
type Service struct {
	addresses Repository
	areas     geo.Repository
}

// NewService creates an address Service.
func NewService(addresses Repository, areas geo.Repository) *Service {
	return &Service{addresses: addresses, areas: areas}
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID int64) ([]Address, error) {
	addrs, err := s.addresses.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	return addrs, nil
}

// Get returns one of the user's addresses.
func (s *Service) Get(ctx context.Context, userID, id int64) (*Address, error) {
	return s.addresses.GetByID(ctx, userID, id)
}

// Create validates the input and saves a new address. Requesting the
// default flag demotes any previous default in the same transaction.
func (s *Service) Create(ctx context.Context, userID int64, in Input) (*Address, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	addr, err := s.addresses.Create(ctx, userID, in)
	if err != nil {
		return nil, errors.Wrap(err, "create address")
	}
	return addr, nil
}

// Update validates the input and rewrites the address.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (*Address, error) {
	if err := s.validate(ctx, in); err != nil {
		return nil, err
	}

	addr, err := s.addresses.Update(ctx, userID, id, in)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "update address")
	}
	return addr, nil
}

// Delete removes the address.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.addresses.Delete(ctx, userID, id)
}

// SetDefault promotes the address to the user's single default.
func (s *Service) SetDefault(ctx context.Context, userID, id int64) (*Address, error) {
	addr, err := s.addresses.SetDefault(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "set default address")
	}
	return addr, nil
}

func (s *Service) validate(ctx context.Context, in Input) error {
	required := []struct {
		field string
		value string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"phone_number", in.PhoneNumber},
		{"street_address", in.StreetAddress},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &InvalidFieldError{Field: r.field, Reason: "this field is required"}
		}
	}

	if in.AreaID <= 0 {
		return &InvalidFieldError{Field: "area_id", Reason: "a valid area is required"}
	}
	if _, err := s.areas.GetArea(ctx, in.AreaID); err != nil {
		if errors.Is(err, geo.ErrAreaNotFound) {
			return geo.ErrAreaNotFound
		}
		return errors.Wrap(err, "check area")
	}

	return nil
}
