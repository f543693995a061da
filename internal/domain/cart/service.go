package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
	"github.com/Mohamed-Elfar/piano/internal/domain/pricing"
)

// Service implements cart operations. Mutations re-read the cart afterwards
// so callers always get a freshly priced view.
type Service struct {
	carts     Repository
	products  catalog.Repository
	validator coupon.Validator
}

// NewService creates a cart Service.
func NewService(carts Repository, products catalog.Repository, validator coupon.Validator) *Service {
	return &Service{carts: carts, products: products, validator: validator}
}

// Get returns the user's priced cart. A user without a cart gets an empty
// view rather than an error.
func (s *Service) Get(ctx context.Context, userID int64) (*View, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return emptyView(), nil
		}
		return nil, errors.Wrap(err, "load cart")
	}
	return buildView(c), nil
}

// AddItem puts quantity units of the product into the cart, creating the
// cart and the line as needed. Adding an existing line increments it.
// The product must exist and be active.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	active, err := s.products.GetActiveByIDs(ctx, []int64{productID})
	if err != nil {
		return nil, errors.Wrap(err, "check product")
	}
	if len(active) == 0 {
		return nil, catalog.ErrNotFound
	}

	c, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get or create cart")
	}
	if err := s.carts.AddItem(ctx, c.ID, productID, quantity); err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}

	return s.Get(ctx, userID)
}

// UpdateItem replaces the quantity of an existing line.
func (s *Service) UpdateItem(ctx context.Context, userID, productID int64, quantity int) (*View, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.SetItemQuantity(ctx, c.ID, productID, quantity); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, productID int64) (*View, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, errors.Wrap(err, "load cart")
	}
	if err := s.carts.RemoveItem(ctx, c.ID, productID); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// Clear removes every line from the user's cart. The cart row itself and
// any attached coupon survive. Clearing a nonexistent cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.carts.ClearItems(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

// ApplyCoupon validates the code and attaches the coupon to the cart. An
// empty code detaches the current coupon instead. Validation failure leaves
// the cart untouched. The user must already have a cart.
func (s *Service) ApplyCoupon(ctx context.Context, userID int64, code string) (*View, error) {
	c, err := s.carts.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load cart")
	}

	if code == "" {
		if err := s.carts.SetCoupon(ctx, c.ID, nil); err != nil {
			return nil, errors.Wrap(err, "detach coupon")
		}
		return s.Get(ctx, userID)
	}

	cp, err := s.validator.Validate(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.carts.SetCoupon(ctx, c.ID, &cp.ID); err != nil {
		return nil, errors.Wrap(err, "attach coupon")
	}

	return s.Get(ctx, userID)
}

// RemoveCoupon detaches the cart's coupon.
func (s *Service) RemoveCoupon(ctx context.Context, userID int64) (*View, error) {
	return s.ApplyCoupon(ctx, userID, "")
}

func emptyView() *View {
	return &View{Subtotal: decimal.Zero, Discount: decimal.Zero}
}

func buildView(c *Cart) *View {
	items := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		items = append(items, pricing.Item{
			ProductID: it.ProductID,
			UnitPrice: it.Product.EffectivePrice(),
			Quantity:  it.Quantity,
		})
	}

	subtotal := pricing.Subtotal(items)
	discount := decimal.Zero
	if c.Coupon != nil {
		discount = pricing.DiscountAmount(subtotal, c.Coupon.DiscountPercent)
	}

	return &View{Cart: c, Subtotal: subtotal, Discount: discount}
}
