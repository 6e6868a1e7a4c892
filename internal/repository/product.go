package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brookemaisy/storefront-api/internal/model"
)

// ProductFilter narrows and orders product listings. Zero values mean "no
// constraint".
type ProductFilter struct {
	CategoryID    uuid.UUID
	Search        string
	ActiveOnly    bool
	FeaturedOnly  bool
	LowStockMax   int // >0 filters inventory_count <= LowStockMax
	PriceMin      string
	PriceMax      string
	InStock       *bool
	Sort          string // one of the keys in productSorts
	Limit, Offset int
}

var productSorts = map[string]string{
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"name_asc":   "name ASC",
	"name_desc":  "name DESC",
	"price_asc":  "price ASC",
	"price_desc": "price DESC",
	"featured":   "featured DESC, created_at DESC",
	"relevance":  "created_at DESC",
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	Count(ctx context.Context, activeOnly bool) (int, error)
	BulkUpdate(ctx context.Context, ids []uuid.UUID, active, featured *bool, categoryID *uuid.UUID) (int, error)
	BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error)
	DecrementInventory(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID, quantity int) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, category_id, name, description, price, sku, slug,
	inventory_count, active, featured, weight, dimensions, materials,
	care_instructions, created_at, updated_at`

func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.Price, &p.SKU, &p.Slug,
		&p.InventoryCount, &p.Active, &p.Featured, &p.Weight, &p.Dimensions, &p.Materials,
		&p.CareInstructions, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, category_id, name, description, price, sku, slug,
				inventory_count, active, featured, weight, dimensions, materials,
				care_instructions, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.CategoryID, product.Name, product.Description, product.Price,
		product.SKU, product.Slug, product.InventoryCount, product.Active, product.Featured,
		product.Weight, product.Dimensions, product.Materials, product.CareInstructions,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

func (r *pgProductRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
	return scanProduct(row)
}

func (r *pgProductRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int, error) {
	where, args := buildProductWhere(filter)

	var total int
	countQ := `SELECT COUNT(*) FROM products` + where
	if err := r.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	orderBy, ok := productSorts[filter.Sort]
	if !ok {
		orderBy = productSorts["newest"]
	}

	query := `SELECT ` + productColumns + ` FROM products` + where +
		` ORDER BY ` + orderBy +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, nil
}

func buildProductWhere(filter ProductFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ActiveOnly {
		conds = append(conds, "active")
	}
	if filter.FeaturedOnly {
		conds = append(conds, "featured")
	}
	if filter.CategoryID != uuid.Nil {
		add("category_id = $%d", filter.CategoryID)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		conds = append(conds, fmt.Sprintf(
			"(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')",
			len(args), len(args),
		))
	}
	if filter.LowStockMax > 0 {
		add("inventory_count <= $%d", filter.LowStockMax)
	}
	if filter.PriceMin != "" {
		add("price >= $%d", filter.PriceMin)
	}
	if filter.PriceMax != "" {
		add("price <= $%d", filter.PriceMax)
	}
	if filter.InStock != nil {
		if *filter.InStock {
			conds = append(conds, "inventory_count > 0")
		} else {
			conds = append(conds, "inventory_count = 0")
		}
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET category_id=$2, name=$3, description=$4, price=$5, sku=$6,
				slug=$7, inventory_count=$8, active=$9, featured=$10, weight=$11,
				dimensions=$12, materials=$13, care_instructions=$14, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.CategoryID, product.Name, product.Description, product.Price,
		product.SKU, product.Slug, product.InventoryCount, product.Active, product.Featured,
		product.Weight, product.Dimensions, product.Materials, product.CareInstructions,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgProductRepo) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check product slug: %w", err)
	}
	return taken, nil
}

func (r *pgProductRepo) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM products`
	if activeOnly {
		query += ` WHERE active`
	}
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func (r *pgProductRepo) BulkUpdate(ctx context.Context, ids []uuid.UUID, active, featured *bool, categoryID *uuid.UUID) (int, error) {
	var sets []string
	var args []interface{}
	args = append(args, ids)

	if active != nil {
		args = append(args, *active)
		sets = append(sets, fmt.Sprintf("active = $%d", len(args)))
	}
	if featured != nil {
		args = append(args, *featured)
		sets = append(sets, fmt.Sprintf("featured = $%d", len(args)))
	}
	if categoryID != nil {
		args = append(args, *categoryID)
		sets = append(sets, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if len(sets) == 0 {
		return 0, nil
	}
	sets = append(sets, "updated_at = NOW()")

	query := `UPDATE products SET ` + strings.Join(sets, ", ") + ` WHERE id = ANY($1)`
	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update products: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *pgProductRepo) BulkDelete(ctx context.Context, ids []uuid.UUID) (int, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk delete products: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

// DecrementInventory takes stock off the product, or off the variant when one
// is referenced, refusing to go negative.
func (r *pgProductRepo) DecrementInventory(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	var ct pgconn.CommandTag
	var err error
	if variantID != nil {
		ct, err = tx.Exec(ctx,
			`UPDATE product_variants SET inventory_count = inventory_count - $2, updated_at = NOW()
			 WHERE id = $1 AND inventory_count >= $2`,
			*variantID, quantity,
		)
	} else {
		ct, err = tx.Exec(ctx,
			`UPDATE products SET inventory_count = inventory_count - $2, updated_at = NOW()
			 WHERE id = $1 AND inventory_count >= $2`,
			productID, quantity,
		)
	}
	if err != nil {
		return fmt.Errorf("decrement inventory: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, productID)
	}
	return nil
}
