package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brookemaisy/storefront-api/internal/model"
)

func createTestUser(t *testing.T, repo UserRepository, email string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Email:     email,
		Password:  "$2a$10$notarealhashnotarealhashnotarealhash",
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func createTestCategory(t *testing.T, repo CategoryRepository, name string, position int) *model.Category {
	t.Helper()
	category := &model.Category{
		Name:     name,
		Slug:     name + "-slug",
		Position: position,
		Active:   true,
	}
	require.NoError(t, repo.Create(context.Background(), category))
	return category
}

func createTestProduct(t *testing.T, repo ProductRepository, categoryID uuid.UUID, name string, price float64, inventory int) *model.Product {
	t.Helper()
	product := &model.Product{
		CategoryID:     categoryID,
		Name:           name,
		Description:    "test product",
		Price:          decimal.NewFromFloat(price),
		SKU:            "TST-" + name,
		Slug:           name,
		InventoryCount: inventory,
		Active:         true,
	}
	require.NoError(t, repo.Create(context.Background(), product))
	return product
}

func TestUserRepository(t *testing.T) {
	cleanupAll(t)
	repo := NewUserRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, repo, "jo@example.com", model.RoleCustomer)
	require.NotEqual(t, uuid.Nil, user.ID)

	got, err := repo.GetByEmail(ctx, "jo@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, model.RoleCustomer, got.Role)

	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	createTestUser(t, repo, "admin@example.com", model.RoleAdmin)
	count, err := repo.CountByRole(ctx, model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.Delete(ctx, user.ID))
	gone, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestCategoryRepository_Positions(t *testing.T) {
	cleanupAll(t)
	repo := NewCategoryRepository(testPool)
	ctx := context.Background()

	a := createTestCategory(t, repo, "ceramics", 1)
	b := createTestCategory(t, repo, "textiles", 2)
	c := createTestCategory(t, repo, "candles", 3)

	maxPos, err := repo.MaxPosition(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, maxPos)

	// b's upward neighbor is a, c has no downward neighbor.
	neighbor, err := repo.Neighbor(ctx, b.Position, true)
	require.NoError(t, err)
	require.NotNil(t, neighbor)
	assert.Equal(t, a.ID, neighbor.ID)

	neighbor, err = repo.Neighbor(ctx, c.Position, false)
	require.NoError(t, err)
	assert.Nil(t, neighbor)

	require.NoError(t, repo.SwapPositions(ctx, a, b))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Position)

	require.NoError(t, repo.SetPositions(ctx, []uuid.UUID{c.ID, b.ID, a.ID}))
	list, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, c.ID, list[0].ID)
	assert.Equal(t, a.ID, list[2].ID)
}

func TestCategoryRepository_SlugTaken(t *testing.T) {
	cleanupAll(t)
	repo := NewCategoryRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, repo, "ceramics", 1)

	taken, err := repo.SlugTaken(ctx, "ceramics-slug", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)

	// A category does not collide with itself.
	taken, err = repo.SlugTaken(ctx, "ceramics-slug", category.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestProductRepository_ListFilters(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	repo := NewProductRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	cheap := createTestProduct(t, repo, category.ID, "coaster", 8.00, 10)
	mid := createTestProduct(t, repo, category.ID, "mug", 24.00, 0)
	hidden := createTestProduct(t, repo, category.ID, "prototype", 99.00, 5)
	hidden.Active = false
	require.NoError(t, repo.Update(ctx, hidden))

	active, total, err := repo.List(ctx, ProductFilter{ActiveOnly: true, Sort: "name_asc", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, active, 2)
	assert.Equal(t, "coaster", active[0].Name)

	under10, total, err := repo.List(ctx, ProductFilter{ActiveOnly: true, PriceMax: "10", Sort: "newest", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, cheap.ID, under10[0].ID)

	inStock := true
	stocked, total, err := repo.List(ctx, ProductFilter{ActiveOnly: true, InStock: &inStock, Sort: "newest", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, cheap.ID, stocked[0].ID)

	searched, total, err := repo.List(ctx, ProductFilter{Search: "mug", Sort: "newest", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, mid.ID, searched[0].ID)

	count, err := repo.Count(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProductRepository_BulkUpdate(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	repo := NewProductRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	a := createTestProduct(t, repo, category.ID, "mug", 24.00, 10)
	b := createTestProduct(t, repo, category.ID, "bowl", 30.00, 10)

	featured := true
	updated, err := repo.BulkUpdate(ctx, []uuid.UUID{a.ID, b.ID}, nil, &featured, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Featured)

	deleted, err := repo.BulkDelete(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestProductRepository_DecrementInventory(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	repo := NewProductRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, repo, category.ID, "mug", 24.00, 5)

	tx, err := testPool.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.DecrementInventory(ctx, tx, product.ID, nil, 3))
	require.NoError(t, tx.Commit(ctx))

	got, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.InventoryCount)

	// Going below zero is refused and rolls back.
	tx, err = testPool.Begin(ctx)
	require.NoError(t, err)
	err = repo.DecrementInventory(ctx, tx, product.ID, nil, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Rollback(ctx))

	got, err = repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.InventoryCount)
}

func TestCartRepository_UpsertIncrements(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 10)

	owner := model.GuestOwner("sess-1")
	cart, err := repo.GetOrCreate(ctx, owner)
	require.NoError(t, err)

	// Second GetOrCreate returns the same cart.
	again, err := repo.GetOrCreate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	require.NoError(t, repo.UpsertItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 2}))
	require.NoError(t, repo.UpsertItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 3}))

	full, err := repo.GetWithItems(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, full.Items, 1)
	assert.Equal(t, 5, full.Items[0].Quantity)
	assert.Equal(t, "mug", full.Items[0].Name)
	assert.True(t, full.Items[0].UnitPrice.Equal(decimal.NewFromFloat(24.00)))
	assert.Equal(t, 10, full.Items[0].InventoryCount)

	// Deleting the line twice reports a clean not-found, not a driver error.
	require.NoError(t, repo.DeleteItem(ctx, full.Items[0].ID))
	assert.ErrorIs(t, repo.DeleteItem(ctx, full.Items[0].ID), ErrNotFound)
}

func TestCartRepository_VariantLinesAreDistinct(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	variantRepo := NewVariantRepository(testPool)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 10)
	variant := &model.ProductVariant{
		ProductID:      product.ID,
		SKU:            product.SKU + "-BL",
		Price:          decimal.NewFromFloat(28.00),
		InventoryCount: 4,
		Color:          "Blue",
		Active:         true,
	}
	require.NoError(t, variantRepo.Create(ctx, variant))

	cart, err := repo.GetOrCreate(ctx, model.GuestOwner("sess-1"))
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: product.ID, Quantity: 1}))
	require.NoError(t, repo.UpsertItem(ctx, &model.CartItem{CartID: cart.ID, ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}))

	full, err := repo.GetWithItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, full.Items, 2)
}

func TestCartRepository_DeleteAbandoned(t *testing.T) {
	cleanupAll(t)
	repo := NewCartRepository(testPool)
	ctx := context.Background()

	_, err := repo.GetOrCreate(ctx, model.GuestOwner("sess-old"))
	require.NoError(t, err)

	// Everything is younger than a cutoff in the future.
	deleted, err := repo.DeleteAbandoned(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	cart, err := repo.FindByOwner(ctx, model.GuestOwner("sess-old"))
	require.NoError(t, err)
	assert.Nil(t, cart)
}

func TestOrderRepository_CreateWithItems(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 10)

	order := &model.Order{
		OrderNumber:   "BM20260815AB12CD34",
		SessionID:     "sess-1",
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Email:         "jo@example.com",
		FirstName:     "Jo",
		LastName:      "Meadows",
		Address:       "12 Main St",
		City:          "Asheville",
		State:         "NC",
		ZipCode:       "28801",
		Country:       "US",
		TotalAmount:   decimal.NewFromFloat(57.83),
		Items: []model.OrderItem{{
			ProductID:  product.ID,
			Name:       product.Name,
			SKU:        product.SKU,
			Quantity:   2,
			UnitPrice:  product.Price,
			TotalPrice: decimal.NewFromFloat(48.00),
		}},
	}
	require.NoError(t, repo.CreateWithItems(ctx, order, productRepo))

	got, err := repo.GetByNumber(ctx, "BM20260815AB12CD34")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromFloat(57.83)))

	// Inventory came down inside the same transaction.
	updated, err := productRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, updated.InventoryCount)

	taken, err := repo.NumberTaken(ctx, "BM20260815AB12CD34")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestOrderRepository_CreateWithItems_InsufficientStockRollsBack(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 1)

	order := &model.Order{
		OrderNumber:   "BM20260815AB12CD99",
		SessionID:     "sess-1",
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Email:         "jo@example.com",
		TotalAmount:   decimal.NewFromFloat(48.00),
		Items: []model.OrderItem{{
			ProductID:  product.ID,
			Name:       product.Name,
			SKU:        product.SKU,
			Quantity:   2,
			UnitPrice:  product.Price,
			TotalPrice: decimal.NewFromFloat(48.00),
		}},
	}
	assert.ErrorIs(t, repo.CreateWithItems(ctx, order, productRepo), ErrInsufficientStock)

	got, err := repo.GetByNumber(ctx, "BM20260815AB12CD99")
	require.NoError(t, err)
	assert.Nil(t, got)

	updated, err := productRepo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.InventoryCount)
}

func TestOrderRepository_Aggregates(t *testing.T) {
	cleanupAll(t)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	repo := NewOrderRepository(testPool)
	ctx := context.Background()

	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 100)

	place := func(number string, total float64) *model.Order {
		order := &model.Order{
			OrderNumber:   number,
			SessionID:     "sess-1",
			Status:        model.OrderStatusPending,
			PaymentStatus: model.PaymentStatusPending,
			Email:         "jo@example.com",
			TotalAmount:   decimal.NewFromFloat(total),
			Items: []model.OrderItem{{
				ProductID: product.ID, Name: product.Name, SKU: product.SKU,
				Quantity: 1, UnitPrice: product.Price, TotalPrice: product.Price,
			}},
		}
		require.NoError(t, repo.CreateWithItems(ctx, order, productRepo))
		return order
	}

	a := place("BM20260815AB12CD01", 30.00)
	place("BM20260815AB12CD02", 54.00)
	require.NoError(t, repo.UpdateStatus(ctx, a.ID, model.OrderStatusProcessing))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	pending, err := repo.CountByStatus(ctx, model.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	// No delivered orders yet, revenue sums to zero.
	revenue, err := repo.RevenueByStatus(ctx, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, revenue.IsZero())

	recent, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestReviewRepository(t *testing.T) {
	cleanupAll(t)
	userRepo := NewUserRepository(testPool)
	categoryRepo := NewCategoryRepository(testPool)
	productRepo := NewProductRepository(testPool)
	repo := NewReviewRepository(testPool)
	ctx := context.Background()

	user := createTestUser(t, userRepo, "jo@example.com", model.RoleCustomer)
	category := createTestCategory(t, categoryRepo, "ceramics", 1)
	product := createTestProduct(t, productRepo, category.ID, "mug", 24.00, 10)

	review := &model.Review{
		ProductID: product.ID,
		UserID:    user.ID,
		Rating:    5,
		Title:     "Lovely",
		Content:   "Exactly as pictured.",
	}
	require.NoError(t, repo.Create(ctx, review))

	exists, err := repo.Exists(ctx, product.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	// Unapproved reviews are invisible to the storefront list and summary.
	visible, err := repo.ListByProduct(ctx, product.ID, true)
	require.NoError(t, err)
	assert.Empty(t, visible)

	require.NoError(t, repo.SetApproved(ctx, review.ID, true))
	visible, err = repo.ListByProduct(ctx, product.ID, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "Test User", visible[0].ReviewerName)

	avg, total, err := repo.RatingSummary(ctx, product.ID)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, avg, 0.001)
	assert.Equal(t, 1, total)

	purchased, err := repo.HasPurchased(ctx, product.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, purchased)
}

func TestArticleRepository(t *testing.T) {
	cleanupAll(t)
	userRepo := NewUserRepository(testPool)
	repo := NewArticleRepository(testPool)
	ctx := context.Background()

	author := createTestUser(t, userRepo, "admin@example.com", model.RoleAdmin)

	article := &model.Article{
		AuthorID: author.ID,
		Title:    "Caring for Ceramics",
		Content:  "Wash by hand.",
		Slug:     "caring-for-ceramics",
	}
	require.NoError(t, repo.Create(ctx, article))

	// Drafts are hidden from the published listing.
	public, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, public)

	article.Published = true
	require.NoError(t, repo.Update(ctx, article))

	public, err = repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, public, 1)

	got, err := repo.GetBySlug(ctx, "caring-for-ceramics")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Wash by hand.", got.Content)

	taken, err := repo.SlugTaken(ctx, "caring-for-ceramics", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, taken)
}
