package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aapiden/storefront/internal/service"
)

type ReviewsHandler struct {
	reviews ReviewService
	timeout time.Duration
}

func NewReviewsHandler(reviews ReviewService, timeout time.Duration) *ReviewsHandler {
	return &ReviewsHandler{
		reviews: reviews,
		timeout: timeout,
	}
}

// GET /api/v1/reviews?product=
func (h *ReviewsHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page, err := parsePage(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	reviews, err := h.reviews.ListProductReviews(ctx, r.URL.Query().Get("product"), page)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

// POST /api/v1/reviews
func (h *ReviewsHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	review, err := h.reviews.UpsertReview(ctx, getActor(r), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// PUT /api/v1/reviews
func (h *ReviewsHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	review, err := h.reviews.UpdateReview(ctx, getActor(r), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, review)
}

// DELETE /api/v1/reviews?id=
func (h *ReviewsHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.reviews.DeleteReview(ctx, getActor(r), r.URL.Query().Get("id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "review deleted"})
}
