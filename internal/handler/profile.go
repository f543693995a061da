package handler

import (
	"net/http"
)

// profileRecentOrders caps how many orders the profile embeds.
const profileRecentOrders = 10

type profileResponse struct {
	ID          int64                  `json:"id"`
	Email       string                 `json:"email"`
	Name        string                 `json:"name"`
	PhoneNumber string                 `json:"phone_number"`
	Favorites   []favoriteResponse     `json:"favorites"`
	Orders      []orderSummaryResponse `json:"orders"`
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)

	u, err := h.verifier.GetUser(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	favs, err := h.favorites.List(ctx, userID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	orders, err := h.orders.Recent(ctx, userID, profileRecentOrders)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}

	favorites := make([]favoriteResponse, 0, len(favs))
	for i := range favs {
		if fav := toFavorite(&favs[i]); fav != nil {
			favorites = append(favorites, *fav)
		}
	}

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Favorites:   favorites,
		Orders:      toOrderSummaries(orders),
	})
}
