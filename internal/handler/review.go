package handler

import (
	"net/http"
	"time"

	"github.com/Mohamed-Elfar/piano/internal/domain/review"
)

type reviewResponse struct {
	ID        int64     `json:"id"`
	User      string    `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}

	reviews, err := h.reviews.ListForProduct(ctx, productID)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toReviews(reviews))
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := h.reviews.Create(ctx, userFrom(ctx), productID, req.Rating, req.Comment)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, toReview(rev))
}

func (h *Handler) updateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}
	reviewID, ok := pathID(r, "reviewID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid review id")
		return
	}
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	rev, err := h.reviews.Update(ctx, userFrom(ctx), productID, reviewID, req.Rating, req.Comment)
	if err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, toReview(rev))
}

func (h *Handler) deleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, ok := pathID(r, "productID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid product id")
		return
	}
	reviewID, ok := pathID(r, "reviewID")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid review id")
		return
	}

	if err := h.reviews.Delete(ctx, userFrom(ctx), productID, reviewID); err != nil {
		respondDomainError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toReview(rev *review.Review) reviewResponse {
	return reviewResponse{
		ID:        rev.ID,
		User:      rev.UserEmail,
		Rating:    rev.Rating,
		Comment:   rev.Comment,
		CreatedAt: rev.CreatedAt,
	}
}

func toReviews(reviews []review.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReview(&reviews[i]))
	}
	return out
}
