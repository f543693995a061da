package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
	"github.com/Mohamed-Elfar/piano/internal/domain/auth"
	"github.com/Mohamed-Elfar/piano/internal/domain/cart"
	"github.com/Mohamed-Elfar/piano/internal/domain/catalog"
	"github.com/Mohamed-Elfar/piano/internal/domain/coupon"
	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
	"github.com/Mohamed-Elfar/piano/internal/domain/order"
	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

// errorResponse is the uniform error envelope. Code repeats the HTTP status
// so clients reading only the body can branch on it.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errorStatus maps domain sentinels to HTTP statuses. The envelope message
// is the sentinel's own text, so wrapping never leaks call-site context to
// clients.
var errorStatus = []struct {
	target error
	status int
}{
	{auth.ErrUnauthorized, http.StatusUnauthorized},
	{catalog.ErrNotFound, http.StatusNotFound},
	{cart.ErrNotFound, http.StatusNotFound},
	{cart.ErrItemNotFound, http.StatusNotFound},
	{order.ErrNotFound, http.StatusNotFound},
	{address.ErrNotFound, http.StatusNotFound},
	{favorite.ErrNotFound, http.StatusNotFound},
	{review.ErrNotFound, http.StatusNotFound},
	{cart.ErrInvalidQuantity, http.StatusBadRequest},
	{order.ErrNoCart, http.StatusBadRequest},
	{order.ErrEmptyCart, http.StatusBadRequest},
	{geo.ErrAreaNotFound, http.StatusBadRequest},
	{review.ErrInvalidRating, http.StatusBadRequest},
	{review.ErrAlreadyReviewed, http.StatusConflict},
	{address.ErrDefaultConflict, http.StatusConflict},
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(ctx).Error("Encode response", zap.Error(err))
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError translates a domain error into the HTTP envelope.
// Unrecognized errors become a generic 500; their details go to the log
// only.
func respondDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, coupon.ErrInvalidCoupon) || errors.Is(err, coupon.ErrCouponExpired) {
		respondError(ctx, w, http.StatusBadRequest, "invalid or expired coupon code")
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.target) {
			respondError(ctx, w, m.status, m.target.Error())
			return
		}
	}

	var orderField *order.InvalidFieldError
	if errors.As(err, &orderField) {
		respondError(ctx, w, http.StatusBadRequest, orderField.Error())
		return
	}
	var addressField *address.InvalidFieldError
	if errors.As(err, &addressField) {
		respondError(ctx, w, http.StatusBadRequest, addressField.Error())
		return
	}

	zctx.From(ctx).Error("Request failed", zap.Error(err))
	respondError(ctx, w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON decodes the request body into v. Unknown fields are ignored;
// a malformed body is reported as a validation failure by the caller.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// money renders an amount as a quoted fixed two-decimal string, "12.50"
// never "12.5". decimal.Decimal's own MarshalJSON trims trailing zeros.
type money decimal.Decimal

// MarshalJSON implements json.Marshaler.
func (m money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(2) + `"`), nil
}

func moneyPtr(d *decimal.Decimal) *money {
	if d == nil {
		return nil
	}
	m := money(*d)
	return &m
}
