package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
)

func newReviewFixture(t *testing.T) (*ReviewService, *mockReviewRepo, *mockProductRepo) {
	t.Helper()
	reviews := newMockReviewRepo()
	products := newMockProductRepo()
	return NewReviewService(reviews, products), reviews, products
}

func reviewRequest() dto.CreateReviewRequest {
	return dto.CreateReviewRequest{Rating: 5, Title: "Lovely", Content: "Exactly as pictured."}
}

func TestReviewService_Create(t *testing.T) {
	svc, _, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)

	resp, err := svc.Create(context.Background(), uuid.New(), product.Slug, reviewRequest())
	require.NoError(t, err)

	// New reviews wait for moderation.
	assert.False(t, resp.Approved)
	assert.Equal(t, 5, resp.Rating)
}

func TestReviewService_Create_OnePerUser(t *testing.T) {
	svc, _, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)
	userID := uuid.New()

	_, err := svc.Create(context.Background(), userID, product.Slug, reviewRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), userID, product.Slug, reviewRequest())
	assert.ErrorIs(t, err, ErrAlreadyReviewed)

	// A different user is fine.
	_, err = svc.Create(context.Background(), uuid.New(), product.Slug, reviewRequest())
	assert.NoError(t, err)
}

func TestReviewService_Create_VerifiedPurchase(t *testing.T) {
	svc, reviews, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)
	buyer := uuid.New()
	reviews.purchases[product.ID] = map[uuid.UUID]bool{buyer: true}

	resp, err := svc.Create(context.Background(), buyer, product.Slug, reviewRequest())
	require.NoError(t, err)

	stored, err := reviews.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.True(t, stored.VerifiedPurchase)
}

func TestReviewService_Create_UnknownProduct(t *testing.T) {
	svc, _, _ := newReviewFixture(t)

	_, err := svc.Create(context.Background(), uuid.New(), "no-such-product", reviewRequest())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestReviewService_ListForProduct_ApprovedOnly(t *testing.T) {
	svc, reviews, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)

	require.NoError(t, reviews.Create(context.Background(), &model.Review{ProductID: product.ID, UserID: uuid.New(), Rating: 5, Approved: true}))
	require.NoError(t, reviews.Create(context.Background(), &model.Review{ProductID: product.ID, UserID: uuid.New(), Rating: 3, Approved: true}))
	require.NoError(t, reviews.Create(context.Background(), &model.Review{ProductID: product.ID, UserID: uuid.New(), Rating: 1, Approved: false}))

	resp, err := svc.ListForProduct(context.Background(), product.Slug)
	require.NoError(t, err)

	assert.Len(t, resp.Reviews, 2)
	assert.Equal(t, 2, resp.Total)
	assert.InDelta(t, 4.0, resp.AverageRating, 0.001)
}

func TestReviewService_Moderation(t *testing.T) {
	svc, reviews, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)

	created, err := svc.Create(context.Background(), uuid.New(), product.Slug, reviewRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Approve(context.Background(), created.ID))
	stored, err := reviews.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.Approved)

	require.NoError(t, svc.Reject(context.Background(), created.ID))
	stored, err = reviews.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.Approved)
}

func TestReviewService_Moderation_NotFound(t *testing.T) {
	svc, _, _ := newReviewFixture(t)

	assert.ErrorIs(t, svc.Approve(context.Background(), uuid.New()), ErrReviewNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.New()), ErrReviewNotFound)
}

func TestReviewService_Delete(t *testing.T) {
	svc, reviews, products := newReviewFixture(t)
	product := seedProduct(t, products, "mug", 24.00, 8)

	created, err := svc.Create(context.Background(), uuid.New(), product.Slug, reviewRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	stored, err := reviews.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
