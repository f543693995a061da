package handler

import (
	"net/http"
	"time"

	"github.com/Mohamed-Elfar/piano/internal/domain/favorite"
)

type favoriteResponse struct {
	ID      int64               `json:"id"`
	Product productListResponse `json:"product"`
	AddedAt time.Time           `json:"added_at"`
}

type toggleFavoriteRequest struct {
	ProductID int64 `json:"product_id"`
}

type toggleFavoriteResponse struct {
	Message     string            `json:"message"`
	IsFavorited bool              `json:"is_favorited"`
	Favorite    *favoriteResponse `json:"favorite,omitempty"`
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	favs, err := h.favorites.List(ctx, userFrom(ctx))
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	out := make([]favoriteResponse, 0, len(favs))
	for i := range favs {
		if fav := toFavorite(&favs[i]); fav != nil {
			out = append(out, *fav)
		}
	}
	respondJSON(ctx, w, http.StatusOK, out)
}

// toggleFavorite adds the product to the favorites, or removes it when it
// is already there. Adding answers 201 with the new favorite attached,
// removing answers 200.
func (h *Handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req toggleFavoriteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "product id is required")
		return
	}

	res, err := h.favorites.Toggle(ctx, userFrom(ctx), req.ProductID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	if !res.Favorited {
		respondJSON(ctx, w, http.StatusOK, toggleFavoriteResponse{
			Message:     "Product removed from favorites",
			IsFavorited: false,
		})
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toggleFavoriteResponse{
		Message:     "Product added to favorites",
		IsFavorited: true,
		Favorite:    toFavorite(res.Favorite),
	})
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r, "favoriteID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid favorite id")
		return
	}

	if err := h.favorites.Remove(ctx, userFrom(ctx), id); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// toFavorite skips favorites whose product has vanished from the catalog.
func toFavorite(f *favorite.Favorite) *favoriteResponse {
	if f == nil || f.Product == nil {
		return nil
	}
	return &favoriteResponse{
		ID:      f.ID,
		Product: toProductList(f.Product),
		AddedAt: f.AddedAt,
	}
}
