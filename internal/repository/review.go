package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brookemaisy/storefront-api/internal/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error)
	ListPending(ctx context.Context, limit int) ([]model.Review, error)
	CountPending(ctx context.Context) (int, error)
	// RatingSummary returns the average rating and count over approved reviews.
	RatingSummary(ctx context.Context, productID uuid.UUID) (float64, int, error)
	Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	HasPurchased(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

const reviewColumns = `r.id, r.product_id, r.user_id, r.rating, r.title, r.content,
	r.verified_purchase, r.helpful_count, r.approved,
	COALESCE(u.first_name || ' ' || u.last_name, ''), r.created_at, r.updated_at`

func scanReview(row pgx.Row) (*model.Review, error) {
	rv := &model.Review{}
	err := row.Scan(
		&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Title, &rv.Content,
		&rv.VerifiedPurchase, &rv.HelpfulCount, &rv.Approved,
		&rv.ReviewerName, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.New()
	query := `INSERT INTO reviews (id, product_id, user_id, rating, title, content,
				verified_purchase, helpful_count, approved, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Title,
		review.Content, review.VerifiedPurchase, review.Approved,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.id = $1`, id)
	return scanReview(row)
}

func (r *pgReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r JOIN users u ON u.id = r.user_id WHERE r.product_id = $1`
	if approvedOnly {
		query += ` AND r.approved`
	}
	query += ` ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func (r *pgReviewRepo) ListPending(ctx context.Context, limit int) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+reviewColumns+` FROM reviews r JOIN users u ON u.id = r.user_id
		 WHERE NOT r.approved ORDER BY r.created_at LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	defer rows.Close()

	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]model.Review, error) {
	var reviews []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	return reviews, nil
}

func (r *pgReviewRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE NOT approved`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending reviews: %w", err)
	}
	return count, nil
}

func (r *pgReviewRepo) RatingSummary(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	var avg float64
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1 AND approved`,
		productID,
	).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("rating summary: %w", err)
	}
	return avg, count, nil
}

func (r *pgReviewRepo) Exists(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)`,
		productID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return exists, nil
}

func (r *pgReviewRepo) HasPurchased(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var purchased bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.product_id = $1 AND o.user_id = $2
		)`, productID, userID,
	).Scan(&purchased)
	if err != nil {
		return false, fmt.Errorf("check purchase: %w", err)
	}
	return purchased, nil
}

func (r *pgReviewRepo) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE reviews SET approved = $2, updated_at = NOW() WHERE id = $1`, id, approved,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
