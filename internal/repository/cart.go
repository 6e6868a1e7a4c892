package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brookemaisy/storefront-api/internal/model"
)

type CartRepository interface {
	GetOrCreate(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	// FindByOwner returns nil without creating when no cart exists.
	FindByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	GetWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error)
	// UpsertItem increments quantity when a line for the same
	// (cart, product, variant) already exists.
	UpsertItem(ctx context.Context, item *model.CartItem) error
	GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error)
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	Delete(ctx context.Context, cartID uuid.UUID) error
	DeleteAbandoned(ctx context.Context, cutoff time.Time) (int, error)
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) GetOrCreate(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &model.Cart{ID: uuid.New(), SessionID: owner.SessionID}
	if !owner.IsGuest() {
		id := owner.UserID
		cart.UserID = &id
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, session_id, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW()) RETURNING created_at, updated_at`,
		cart.ID, cart.UserID, cart.SessionID,
	).Scan(&cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) FindByOwner(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	var row pgx.Row
	if owner.IsGuest() {
		row = r.pool.QueryRow(ctx,
			`SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE session_id = $1`,
			owner.SessionID,
		)
	} else {
		row = r.pool.QueryRow(ctx,
			`SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE user_id = $1`,
			owner.UserID,
		)
	}

	cart := &model.Cart{}
	err := row.Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetWithItems(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, session_id, created_at, updated_at FROM carts WHERE id = $1`, cartID,
	).Scan(&cart.ID, &cart.UserID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	// Each line carries its product's (or variant's) current name, sku,
	// price and inventory so callers never chase references themselves.
	rows, err := r.pool.Query(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.product_variant_id, ci.quantity,
				ci.created_at, ci.updated_at,
				p.name, v.name, v.color, v.size, v.style,
				COALESCE(v.sku, p.sku),
				COALESCE(v.price, p.price),
				COALESCE(v.inventory_count, p.inventory_count)
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 LEFT JOIN product_variants v ON v.id = ci.product_variant_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		var productName string
		var variantName, color, size, style *string
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.VariantID, &item.Quantity,
			&item.CreatedAt, &item.UpdatedAt,
			&productName, &variantName, &color, &size, &style,
			&item.SKU, &item.UnitPrice, &item.InventoryCount,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if item.VariantID != nil {
			item.Name = model.VariantDisplayName(productName, deref(variantName), deref(color), deref(size), deref(style))
		} else {
			item.Name = productName
		}
		cart.Items = append(cart.Items, item)
	}
	return cart, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *pgCartRepo) UpsertItem(ctx context.Context, item *model.CartItem) error {
	item.ID = uuid.New()
	// The partial unique indexes on (cart_id, product_id [, product_variant_id])
	// make re-adding the same line an increment, never a duplicate row.
	var query string
	if item.VariantID != nil {
		query = `INSERT INTO cart_items (id, cart_id, product_id, product_variant_id, quantity, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
				 ON CONFLICT (cart_id, product_id, product_variant_id) WHERE product_variant_id IS NOT NULL
				 DO UPDATE SET quantity = cart_items.quantity + $5, updated_at = NOW()
				 RETURNING id, quantity, created_at, updated_at`
	} else {
		query = `INSERT INTO cart_items (id, cart_id, product_id, product_variant_id, quantity, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
				 ON CONFLICT (cart_id, product_id) WHERE product_variant_id IS NULL
				 DO UPDATE SET quantity = cart_items.quantity + $5, updated_at = NOW()
				 RETURNING id, quantity, created_at, updated_at`
	}
	err := r.pool.QueryRow(ctx, query,
		item.ID, item.CartID, item.ProductID, item.VariantID, item.Quantity,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	r.touch(ctx, item.CartID)
	return nil
}

func (r *pgCartRepo) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, cart_id, product_id, product_variant_id, quantity, created_at, updated_at
		 FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariantID, &item.Quantity,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return item, nil
}

func (r *pgCartRepo) SetItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	var cartID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1 RETURNING cart_id`,
		itemID, quantity,
	).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	r.touch(ctx, cartID)
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	var cartID uuid.UUID
	err := r.pool.QueryRow(ctx,
		`DELETE FROM cart_items WHERE id = $1 RETURNING cart_id`, itemID,
	).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	r.touch(ctx, cartID)
	return nil
}

func (r *pgCartRepo) Clear(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	r.touch(ctx, cartID)
	return nil
}

func (r *pgCartRepo) Delete(ctx context.Context, cartID uuid.UUID) error {
	// cart_items cascade via FK
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteAbandoned(ctx context.Context, cutoff time.Time) (int, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete abandoned carts: %w", err)
	}
	return int(ct.RowsAffected()), nil
}

func (r *pgCartRepo) touch(ctx context.Context, cartID uuid.UUID) {
	_, _ = r.pool.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
}
