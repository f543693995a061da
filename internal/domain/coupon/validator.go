package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Validator checks whether a coupon code can currently be redeemed.
type Validator interface {
	Validate(ctx context.Context, code string) (*Coupon, error)
}

// RepoValidator implements Validator by looking up coupons from a Repository
// and checking them against the wall clock.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate resolves the code and checks the validity window. The lookup is
// case-insensitive and only sees active coupons, so an inactive code fails
// the same way an unknown one does.
func (v *RepoValidator) Validate(ctx context.Context, code string) (*Coupon, error) {
	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			return nil, ErrInvalidCoupon
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if !c.UsableAt(v.now()) {
		return nil, ErrCouponExpired
	}

	return c, nil
}
