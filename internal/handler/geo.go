package handler

import (
	"net/http"

	"github.com/Mohamed-Elfar/piano/internal/domain/geo"
)

type areaResponse struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	ShippingCost money    `json:"shipping_cost"`
	Governorate  namedRef `json:"governorate"`
}

type governorateResponse struct {
	ID    int64                `json:"id"`
	Name  string               `json:"name"`
	Areas []nestedAreaResponse `json:"areas"`
}

// nestedAreaResponse omits the governorate, which is the enclosing object.
type nestedAreaResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ShippingCost money  `json:"shipping_cost"`
}

func (h *Handler) listGovernorates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	governorates, err := h.geo.Governorates(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]governorateResponse, 0, len(governorates))
	for _, g := range governorates {
		areas := make([]nestedAreaResponse, 0, len(g.Areas))
		for _, a := range g.Areas {
			areas = append(areas, nestedAreaResponse{ID: a.ID, Name: a.Name, ShippingCost: money(a.ShippingCost)})
		}
		out = append(out, governorateResponse{ID: g.ID, Name: g.Name, Areas: areas})
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func (h *Handler) listAreas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	areas, err := h.geo.Areas(ctx)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, toArea(&a))
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

func toArea(a *geo.Area) areaResponse {
	return areaResponse{
		ID:           a.ID,
		Name:         a.Name,
		ShippingCost: money(a.ShippingCost),
		Governorate:  namedRef{ID: a.GovernorateID, Name: a.GovernorateName},
	}
}
