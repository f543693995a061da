package handler

import (
	"net/http"
	"time"

	"github.com/Mohamed-Elfar/piano/internal/domain/order"
)

type checkoutAddressRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneNumber      string `json:"phone_number"`
	StreetAddress    string `json:"street_address"`
	ApartmentDetails string `json:"apartment_details"`
	AreaID           int64  `json:"area_id"`
}

type checkoutRequest struct {
	ShippingAddress checkoutAddressRequest `json:"shipping_address"`
	PaymentMethod   string                 `json:"payment_method"`
}

type orderItemResponse struct {
	ProductID       *int64 `json:"product_id"`
	ProductName     string `json:"product_name"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase money  `json:"price_at_purchase"`
	TotalPrice      money  `json:"total_price"`
}

type orderSummaryResponse struct {
	ID            int64     `json:"id"`
	FinalTotal    money     `json:"final_total"`
	Status        string    `json:"status"`
	StatusDisplay string    `json:"status_display"`
	CreatedAt     time.Time `json:"created_at"`
}

// orderShippingAddressResponse is the address snapshot shown with an order.
type orderShippingAddressResponse struct {
	ID               int64  `json:"id"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneNumber      string `json:"phone_number"`
	StreetAddress    string `json:"street_address"`
	ApartmentDetails string `json:"apartment_details"`
	AreaName         string `json:"area_name"`
	GovernorateName  string `json:"governorate_name"`
}

type orderResponse struct {
	ID              int64                         `json:"id"`
	User            int64                         `json:"user"`
	ShippingAddress *orderShippingAddressResponse `json:"shipping_address"`
	CartSubtotal    money                         `json:"cart_subtotal"`
	ShippingCost    money                         `json:"shipping_cost"`
	CouponDiscount  money                         `json:"coupon_discount"`
	FinalTotal      money                         `json:"final_total"`
	CouponCodeUsed  *string                       `json:"coupon_code_used"`
	PaymentMethod   string                        `json:"payment_method"`
	PaymentStatus   string                        `json:"payment_status"`
	TransactionID   *string                       `json:"transaction_id"`
	Status          string                        `json:"status"`
	StatusDisplay   string                        `json:"status_display"`
	CreatedAt       time.Time                     `json:"created_at"`
	Items           []orderItemResponse           `json:"items"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	placed, err := h.orders.PlaceOrder(ctx, order.CheckoutRequest{
		UserID: userID,
		ShippingAddress: order.ShippingDetails{
			FirstName:        req.ShippingAddress.FirstName,
			LastName:         req.ShippingAddress.LastName,
			PhoneNumber:      req.ShippingAddress.PhoneNumber,
			StreetAddress:    req.ShippingAddress.StreetAddress,
			ApartmentDetails: req.ShippingAddress.ApartmentDetails,
			AreaID:           req.ShippingAddress.AreaID,
		},
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	// Re-read so the response carries the hydrated shipping address snapshot.
	placed, err = h.orders.Get(ctx, userID, placed.ID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toOrder(placed))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summaries, err := h.orders.List(ctx, userFrom(ctx))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toOrderSummaries(summaries))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, ok := pathID(r, "orderID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.Get(ctx, userFrom(ctx), orderID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toOrder(o))
}

func toOrder(o *order.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		items = append(items, orderItemResponse{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: money(it.PriceAtPurchase),
			TotalPrice:      money(it.LineTotal()),
		})
	}

	resp := orderResponse{
		ID:             o.ID,
		User:           o.UserID,
		CartSubtotal:   money(o.CartSubtotal),
		ShippingCost:   money(o.ShippingCost),
		CouponDiscount: money(o.CouponDiscount),
		FinalTotal:     money(o.FinalTotal),
		CouponCodeUsed: o.CouponCodeUsed,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		TransactionID:  o.TransactionID,
		Status:         string(o.Status),
		StatusDisplay:  o.Status.Display(),
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
	if a := o.ShippingAddress; a != nil {
		addr := orderShippingAddressResponse{
			ID:               a.ID,
			FirstName:        a.FirstName,
			LastName:         a.LastName,
			PhoneNumber:      a.PhoneNumber,
			StreetAddress:    a.StreetAddress,
			ApartmentDetails: a.ApartmentDetails,
		}
		if a.Area != nil {
			addr.AreaName = a.Area.Name
			addr.GovernorateName = a.Area.GovernorateName
		}
		resp.ShippingAddress = &addr
	}
	return resp
}

func toOrderSummaries(summaries []order.Summary) []orderSummaryResponse {
	out := make([]orderSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, orderSummaryResponse{
			ID:            s.ID,
			FinalTotal:    money(s.FinalTotal),
			Status:        string(s.Status),
			StatusDisplay: s.Status.Display(),
			CreatedAt:     s.CreatedAt,
		})
	}
	return out
}
