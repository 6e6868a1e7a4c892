package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/policy"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("product already reviewed")
)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo}
}

// Create submits a review for moderation. One review per user per product;
// verified_purchase is stamped from order history at submission time.
func (s *ReviewService) Create(ctx context.Context, userID uuid.UUID, productSlug string, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	actor := policy.Actor{ID: userID, Role: model.RoleCustomer}
	if err := policy.Allow(actor, policy.ActionCreate, policy.Target{Resource: policy.ResourceReview, OwnerID: userID}); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, ErrProductNotFound
	}

	exists, err := s.reviewRepo.Exists(ctx, product.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("check review: %w", err)
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	purchased, err := s.reviewRepo.HasPurchased(ctx, product.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	review := &model.Review{
		ProductID:        product.ID,
		UserID:           userID,
		Rating:           req.Rating,
		Title:            req.Title,
		Content:          req.Content,
		VerifiedPurchase: purchased,
		Approved:         false,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

// ListForProduct returns approved reviews with the aggregate rating. The
// storefront never sees unmoderated reviews.
func (s *ReviewService) ListForProduct(ctx context.Context, productSlug string) (*dto.ReviewListResponse, error) {
	product, err := s.productRepo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.Active {
		return nil, ErrProductNotFound
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, product.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	avg, total, err := s.reviewRepo.RatingSummary(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	resp := &dto.ReviewListResponse{AverageRating: avg, Total: total}
	for i := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(&reviews[i]))
	}
	return resp, nil
}

func (s *ReviewService) ListPending(ctx context.Context, limit int) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.ListPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, toReviewResponse(&reviews[i]))
	}
	return items, nil
}

func (s *ReviewService) Approve(ctx context.Context, id uuid.UUID) error {
	return s.setApproved(ctx, id, true)
}

func (s *ReviewService) Reject(ctx context.Context, id uuid.UUID) error {
	return s.setApproved(ctx, id, false)
}

func (s *ReviewService) setApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	if err := s.reviewRepo.SetApproved(ctx, id, approved); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("moderate review: %w", err)
	}
	return nil
}

func (s *ReviewService) Delete(ctx context.Context, id uuid.UUID) error {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return ErrReviewNotFound
	}
	return s.reviewRepo.Delete(ctx, id)
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Rating:       r.Rating,
		Title:        r.Title,
		Content:      r.Content,
		ReviewerName: r.ReviewerName,
		Approved:     r.Approved,
		CreatedAt:    r.CreatedAt,
	}
}
