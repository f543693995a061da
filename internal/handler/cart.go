package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
)

type cartItemResponse struct {
	ID        int64               `json:"id"`
	Product   productListResponse `json:"product"`
	Quantity  int                 `json:"quantity"`
	UnitPrice money               `json:"unit_price"`
	LineTotal money               `json:"line_total"`
}

type cartResponse struct {
	ID                    int64              `json:"id"`
	User                  int64              `json:"user"`
	Items                 []cartItemResponse `json:"items"`
	CartSubtotal          money              `json:"cart_subtotal"`
	CouponCode            *string            `json:"coupon_code"`
	CouponDiscountPercent *money             `json:"coupon_discount_percent"`
	CouponDiscountAmount  money              `json:"coupon_discount_amount"`
	CreatedAt             time.Time          `json:"created_at"`
}

// emptyCartResponse is returned for users who have no cart row yet.
type emptyCartResponse struct {
	Items                []cartItemResponse `json:"items"`
	CartSubtotal         money              `json:"cart_subtotal"`
	CouponDiscountAmount money              `json:"coupon_discount_amount"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.carts.Get(ctx, userFrom(ctx))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusOK, view)
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.carts.AddItem(ctx, userFrom(ctx), req.ProductID, req.Quantity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusCreated, view)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req updateCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.carts.UpdateItem(ctx, userFrom(ctx), productID, req.Quantity)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusOK, view)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}

	view, err := h.carts.RemoveItem(ctx, userFrom(ctx), productID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusOK, view)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.carts.Clear(ctx, userFrom(ctx)); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req applyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		respondError(ctx, w, http.StatusBadRequest, "coupon code is required")
		return
	}

	view, err := h.carts.ApplyCoupon(ctx, userFrom(ctx), code)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusOK, view)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.carts.RemoveCoupon(ctx, userFrom(ctx))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondCartView(ctx, w, http.StatusOK, view)
}

// respondCartView renders a priced cart. Users without a cart row get the
// empty shape instead of a 404.
func respondCartView(ctx context.Context, w http.ResponseWriter, status int, view *cart.View) {
	if view.Cart == nil {
		respondJSON(ctx, w, status, emptyCartResponse{
			Items:                []cartItemResponse{},
			CartSubtotal:         money(decimal.Zero),
			CouponDiscountAmount: money(decimal.Zero),
		})
		return
	}
	respondJSON(ctx, w, status, toCartView(view))
}

func toCartView(view *cart.View) cartResponse {
	c := view.Cart

	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		if it.Product == nil {
			continue
		}
		unit := it.Product.EffectivePrice()
		items = append(items, cartItemResponse{
			ID:        it.ID,
			Product:   toProductList(it.Product),
			Quantity:  it.Quantity,
			UnitPrice: money(unit),
			LineTotal: money(unit.Mul(decimal.NewFromInt(int64(it.Quantity)))),
		})
	}

	resp := cartResponse{
		ID:                   c.ID,
		User:                 c.UserID,
		Items:                items,
		CartSubtotal:         money(view.Subtotal),
		CouponDiscountAmount: money(view.Discount),
		CreatedAt:            c.CreatedAt,
	}
	if c.Coupon != nil {
		resp.CouponCode = &c.Coupon.Code
		percent := money(c.Coupon.DiscountPercent)
		resp.CouponDiscountPercent = &percent
	}
	return resp
}
