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

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context, activeOnly bool) ([]model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	MaxPosition(ctx context.Context) (int, error)
	CountProducts(ctx context.Context, categoryID uuid.UUID) (int, error)
	// Neighbor returns the adjacent category by position: the closest one
	// below when up is true, the closest above otherwise.
	Neighbor(ctx context.Context, position int, up bool) (*model.Category, error)
	SwapPositions(ctx context.Context, a, b *model.Category) error
	SetPositions(ctx context.Context, orderedIDs []uuid.UUID) error
}

type pgCategoryRepo struct{ pool *pgxpool.Pool }

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &pgCategoryRepo{pool: pool}
}

const categoryColumns = `id, name, description, slug, position, active, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.Category, error) {
	c := &model.Category{}
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Slug, &c.Position, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return c, nil
}

func (r *pgCategoryRepo) Create(ctx context.Context, category *model.Category) error {
	category.ID = uuid.New()
	query := `INSERT INTO categories (id, name, description, slug, position, active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		category.ID, category.Name, category.Description, category.Slug, category.Position, category.Active,
	).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return scanCategory(row)
}

func (r *pgCategoryRepo) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	return scanCategory(row)
}

func (r *pgCategoryRepo) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY position, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

func (r *pgCategoryRepo) Update(ctx context.Context, category *model.Category) error {
	query := `UPDATE categories SET name=$2, description=$3, slug=$4, position=$5, active=$6, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		category.ID, category.Name, category.Description, category.Slug, category.Position, category.Active,
	).Scan(&category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *pgCategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgCategoryRepo) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM categories WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check category slug: %w", err)
	}
	return taken, nil
}

func (r *pgCategoryRepo) MaxPosition(ctx context.Context) (int, error) {
	var max int
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(MAX(position), 0) FROM categories`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max category position: %w", err)
	}
	return max, nil
}

func (r *pgCategoryRepo) CountProducts(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count category products: %w", err)
	}
	return count, nil
}

func (r *pgCategoryRepo) Neighbor(ctx context.Context, position int, up bool) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE position > $1 ORDER BY position ASC LIMIT 1`
	if up {
		query = `SELECT ` + categoryColumns + ` FROM categories WHERE position < $1 ORDER BY position DESC LIMIT 1`
	}
	row := r.pool.QueryRow(ctx, query, position)
	return scanCategory(row)
}

// SwapPositions exchanges the positions of two categories in one transaction
// so concurrent reorders cannot interleave into a lost update.
func (r *pgCategoryRepo) SwapPositions(ctx context.Context, a, b *model.Category) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE categories SET position = $2, updated_at = NOW() WHERE id = $1`, a.ID, b.Position,
	); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE categories SET position = $2, updated_at = NOW() WHERE id = $1`, b.ID, a.Position,
	); err != nil {
		return fmt.Errorf("swap position: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	a.Position, b.Position = b.Position, a.Position
	return nil
}

func (r *pgCategoryRepo) SetPositions(ctx context.Context, orderedIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, id := range orderedIDs {
		if _, err := tx.Exec(ctx,
			`UPDATE categories SET position = $2, updated_at = NOW() WHERE id = $1`, id, i+1,
		); err != nil {
			return fmt.Errorf("set position: %w", err)
		}
	}
	return tx.Commit(ctx)
}
