package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/aapiden/storefront/internal/domain"
	"github.com/aapiden/storefront/internal/repository"
)

type ReviewRequest struct {
	ID      string `json:"_id,omitempty"`
	Product string `json:"product"`
	Review  string `json:"review" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
}

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

func NewReviewService(stores Stores, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: stores.Reviews, products: stores.Products, logger: logger}
}

func (s *ReviewService) ListProductReviews(ctx context.Context, productID string, page domain.PageRequest) (*domain.ReviewPage, error) {
	id, err := domain.ParseID(productID)
	if err != nil {
		return nil, err
	}
	reviews, total, err := s.reviews.ListByProduct(ctx, id, page)
	if err != nil {
		logFailure(ctx, s.logger, "list reviews failed", err, "product_id", productID)
		return nil, err
	}
	avg, err := s.reviews.AverageRating(ctx, id)
	if err != nil {
		logFailure(ctx, s.logger, "average rating failed", err, "product_id", productID)
		return nil, err
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	return &domain.ReviewPage{
		Reviews:       reviews,
		TotalReviews:  total,
		TotalPages:    int64(math.Ceil(float64(total) / float64(page.PageSize))),
		AverageRating: avg,
	}, nil
}

// UpsertReview writes the actor's review of a product, replacing an earlier one.
func (s *ReviewService) UpsertReview(ctx context.Context, actor domain.Actor, req ReviewRequest) (*domain.Review, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Product) == "" {
		return nil, fmt.Errorf("%w: product is required", domain.ErrInvalidInput)
	}
	productID, err := domain.ParseID(req.Product)
	if err != nil {
		return nil, err
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		logFailure(ctx, s.logger, "load reviewed product failed", err, "product_id", req.Product)
		return nil, err
	}

	review, err := s.reviews.Upsert(ctx, &domain.Review{
		UserID:    actor.UserID,
		ProductID: productID,
		Text:      strings.TrimSpace(req.Review),
		Rating:    req.Rating,
	})
	if err != nil {
		logFailure(ctx, s.logger, "upsert review failed", err, "product_id", req.Product)
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) UpdateReview(ctx context.Context, actor domain.Actor, req ReviewRequest) (*domain.Review, error) {
	review, err := s.authored(ctx, actor, req.ID)
	if err != nil {
		return nil, err
	}
	if err := validateReview(req); err != nil {
		return nil, err
	}
	updated, err := s.reviews.Update(ctx, review.ID, strings.TrimSpace(req.Review), req.Rating)
	if err != nil {
		logFailure(ctx, s.logger, "update review failed", err, "review_id", req.ID)
		return nil, err
	}
	return updated, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor domain.Actor, reviewID string) error {
	review, err := s.authored(ctx, actor, reviewID)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		logFailure(ctx, s.logger, "delete review failed", err, "review_id", reviewID)
		return err
	}
	return nil
}

// authored loads a review the actor wrote, or any review for an admin.
func (s *ReviewService) authored(ctx context.Context, actor domain.Actor, reviewID string) (*domain.Review, error) {
	if err := requireSession(actor); err != nil {
		return nil, err
	}
	id, err := domain.ParseID(reviewID)
	if err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		logFailure(ctx, s.logger, "load review failed", err, "review_id", reviewID)
		return nil, err
	}
	if !actor.Owns(review.UserID) {
		return nil, fmt.Errorf("%w: only the author can change a review", domain.ErrForbidden)
	}
	return review, nil
}

func validateReview(req ReviewRequest) error {
	if strings.TrimSpace(req.Review) == "" {
		return fmt.Errorf("%w: review text is required", domain.ErrInvalidInput)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}
	return nil
}
