package handler

import (
	"net/http"
	"time"

	"github.com/Mohamed-Elfar/piano/internal/domain/address"
)

type addressRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneNumber      string `json:"phone_number"`
	StreetAddress    string `json:"street_address"`
	ApartmentDetails string `json:"apartment_details"`
	AreaID           int64  `json:"area_id"`
	IsDefault        bool   `json:"is_default"`
}

type addressResponse struct {
	ID               int64               `json:"id"`
	FirstName        string              `json:"first_name"`
	LastName         string              `json:"last_name"`
	PhoneNumber      string              `json:"phone_number"`
	StreetAddress    string              `json:"street_address"`
	ApartmentDetails string              `json:"apartment_details"`
	Area             *nestedAreaResponse `json:"area"`
	Governorate      *namedRef           `json:"governorate"`
	IsDefault        bool                `json:"is_default"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (h *Handler) listAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addrs, err := h.addresses.List(ctx, userFrom(ctx))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]addressResponse, 0, len(addrs))
	for i := range addrs {
		out = append(out, toAddress(&addrs[i]))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) createAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	addr, err := h.addresses.Create(ctx, userFrom(ctx), toAddressInput(req))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toAddress(addr))
}

func (h *Handler) getAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "addressID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid address id")
		return
	}

	addr, err := h.addresses.Get(ctx, userFrom(ctx), id)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toAddress(addr))
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "addressID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid address id")
		return
	}
	var req addressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	addr, err := h.addresses.Update(ctx, userFrom(ctx), id, toAddressInput(req))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toAddress(addr))
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "addressID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid address id")
		return
	}

	if err := h.addresses.Delete(ctx, userFrom(ctx), id); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setDefaultAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "addressID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid address id")
		return
	}

	addr, err := h.addresses.SetDefault(ctx, userFrom(ctx), id)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toAddress(addr))
}

func toAddressInput(req addressRequest) address.Input {
	return address.Input{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PhoneNumber:      req.PhoneNumber,
		StreetAddress:    req.StreetAddress,
		ApartmentDetails: req.ApartmentDetails,
		AreaID:           req.AreaID,
		IsDefault:        req.IsDefault,
	}
}

func toAddress(a *address.Address) addressResponse {
	resp := addressResponse{
		ID:               a.ID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		PhoneNumber:      a.PhoneNumber,
		StreetAddress:    a.StreetAddress,
		ApartmentDetails: a.ApartmentDetails,
		IsDefault:        a.IsDefault,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Area != nil {
		resp.Area = &nestedAreaResponse{ID: a.Area.ID, Name: a.Area.Name, ShippingCost: money(a.Area.ShippingCost)}
		resp.Governorate = &namedRef{ID: a.Area.GovernorateID, Name: a.Area.GovernorateName}
	}
	return resp
}
