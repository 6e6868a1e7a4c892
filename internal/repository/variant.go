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

type VariantRepository interface {
	Create(ctx context.Context, variant *model.ProductVariant) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.ProductVariant, error)
	Update(ctx context.Context, variant *model.ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgVariantRepo struct{ pool *pgxpool.Pool }

func NewVariantRepository(pool *pgxpool.Pool) VariantRepository {
	return &pgVariantRepo{pool: pool}
}

const variantColumns = `id, product_id, name, sku, price, inventory_count,
	color, size, style, active, created_at, updated_at`

func scanVariant(row pgx.Row) (*model.ProductVariant, error) {
	v := &model.ProductVariant{}
	err := row.Scan(
		&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.InventoryCount,
		&v.Color, &v.Size, &v.Style, &v.Active, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan variant: %w", err)
	}
	return v, nil
}

func (r *pgVariantRepo) Create(ctx context.Context, variant *model.ProductVariant) error {
	variant.ID = uuid.New()
	query := `INSERT INTO product_variants (id, product_id, name, sku, price, inventory_count,
				color, size, style, active, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		variant.ID, variant.ProductID, variant.Name, variant.SKU, variant.Price,
		variant.InventoryCount, variant.Color, variant.Size, variant.Style, variant.Active,
	).Scan(&variant.CreatedAt, &variant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create variant: %w", err)
	}
	return nil
}

func (r *pgVariantRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	return scanVariant(row)
}

func (r *pgVariantRepo) ListByProduct(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]model.ProductVariant, error) {
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []model.ProductVariant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	return variants, nil
}

func (r *pgVariantRepo) Update(ctx context.Context, variant *model.ProductVariant) error {
	query := `UPDATE product_variants SET name=$2, sku=$3, price=$4, inventory_count=$5,
				color=$6, size=$7, style=$8, active=$9, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		variant.ID, variant.Name, variant.SKU, variant.Price, variant.InventoryCount,
		variant.Color, variant.Size, variant.Style, variant.Active,
	).Scan(&variant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update variant: %w", err)
	}
	return nil
}

func (r *pgVariantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
