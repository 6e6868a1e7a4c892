package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

// --- products ---

type mockProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, slug string) (*model.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockProductRepo) List(_ context.Context, filter repository.ProductFilter) ([]model.Product, int, error) {
	var out []model.Product
	for _, p := range m.products {
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if filter.LowStockMax > 0 && p.InventoryCount > filter.LowStockMax {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	cp := *p
	m.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) SlugTaken(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, p := range m.products {
		if p.Slug == slug && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockProductRepo) Count(_ context.Context, activeOnly bool) (int, error) {
	count := 0
	for _, p := range m.products {
		if activeOnly && !p.Active {
			continue
		}
		count++
	}
	return count, nil
}

func (m *mockProductRepo) BulkUpdate(_ context.Context, ids []uuid.UUID, active, featured *bool, categoryID *uuid.UUID) (int, error) {
	updated := 0
	for _, id := range ids {
		p, ok := m.products[id]
		if !ok {
			continue
		}
		if active != nil {
			p.Active = *active
		}
		if featured != nil {
			p.Featured = *featured
		}
		if categoryID != nil {
			p.CategoryID = *categoryID
		}
		updated++
	}
	return updated, nil
}

func (m *mockProductRepo) BulkDelete(_ context.Context, ids []uuid.UUID) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := m.products[id]; ok {
			delete(m.products, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockProductRepo) DecrementInventory(_ context.Context, _ pgx.Tx, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	p, ok := m.products[productID]
	if !ok || p.InventoryCount < quantity {
		return fmt.Errorf("%w: product %s", repository.ErrInsufficientStock, productID)
	}
	p.InventoryCount -= quantity
	return nil
}

// --- variants ---

type mockVariantRepo struct {
	variants map[uuid.UUID]*model.ProductVariant
}

func newMockVariantRepo() *mockVariantRepo {
	return &mockVariantRepo{variants: make(map[uuid.UUID]*model.ProductVariant)}
}

func (m *mockVariantRepo) Create(_ context.Context, v *model.ProductVariant) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	m.variants[v.ID] = &cp
	return nil
}

func (m *mockVariantRepo) GetByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *mockVariantRepo) ListByProduct(_ context.Context, productID uuid.UUID, activeOnly bool) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, v := range m.variants {
		if v.ProductID != productID {
			continue
		}
		if activeOnly && !v.Active {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (m *mockVariantRepo) Update(_ context.Context, v *model.ProductVariant) error {
	cp := *v
	m.variants[v.ID] = &cp
	return nil
}

func (m *mockVariantRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.variants, id)
	return nil
}

// --- carts ---

type mockCartRepo struct {
	carts    map[uuid.UUID]*model.Cart
	items    map[uuid.UUID]*model.CartItem
	products *mockProductRepo
	variants *mockVariantRepo

	deleteItemErr error // forced failure for the next DeleteItem
}

func newMockCartRepo(products *mockProductRepo, variants *mockVariantRepo) *mockCartRepo {
	return &mockCartRepo{
		carts:    make(map[uuid.UUID]*model.Cart),
		items:    make(map[uuid.UUID]*model.CartItem),
		products: products,
		variants: variants,
	}
}

func (m *mockCartRepo) GetOrCreate(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, _ := m.FindByOwner(ctx, owner)
	if cart != nil {
		return cart, nil
	}
	cart = &model.Cart{ID: uuid.New(), SessionID: owner.SessionID, UpdatedAt: time.Now()}
	if !owner.IsGuest() {
		id := owner.UserID
		cart.UserID = &id
	}
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) FindByOwner(_ context.Context, owner model.CartOwner) (*model.Cart, error) {
	for _, c := range m.carts {
		if owner.IsGuest() {
			if c.UserID == nil && c.SessionID == owner.SessionID {
				return c, nil
			}
		} else if c.UserID != nil && *c.UserID == owner.UserID {
			return c, nil
		}
	}
	return nil, nil
}

// GetWithItems denormalizes name, price, and inventory from the product and
// variant stores the way the SQL join does.
func (m *mockCartRepo) GetWithItems(_ context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = nil
	for _, item := range m.items {
		if item.CartID != cartID {
			continue
		}
		line := *item
		if p, ok := m.products.products[item.ProductID]; ok {
			line.Name, line.SKU = p.Name, p.SKU
			line.UnitPrice = p.Price
			line.InventoryCount = p.InventoryCount
		}
		if item.VariantID != nil {
			if v, ok := m.variants.variants[*item.VariantID]; ok {
				line.SKU = v.SKU
				line.UnitPrice = v.Price
				line.InventoryCount = v.InventoryCount
			}
		}
		cp.Items = append(cp.Items, line)
	}
	sort.Slice(cp.Items, func(i, j int) bool { return cp.Items[i].CreatedAt.Before(cp.Items[j].CreatedAt) })
	return &cp, nil
}

func (m *mockCartRepo) UpsertItem(_ context.Context, item *model.CartItem) error {
	for _, existing := range m.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID && equalVariant(existing.VariantID, item.VariantID) {
			existing.Quantity += item.Quantity
			item.ID = existing.ID
			item.Quantity = existing.Quantity
			return nil
		}
	}
	item.ID = uuid.New()
	item.CreatedAt = time.Now()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockCartRepo) GetItem(_ context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	item, ok := m.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, nil
	}
	cp := *item
	return &cp, nil
}

func (m *mockCartRepo) SetItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	if item, ok := m.items[itemID]; ok {
		item.Quantity = quantity
	}
	return nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	if m.deleteItemErr != nil {
		return m.deleteItemErr
	}
	if _, ok := m.items[itemID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.items, itemID)
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, cartID uuid.UUID) error {
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, cartID uuid.UUID) error {
	_ = m.Clear(ctx, cartID)
	delete(m.carts, cartID)
	return nil
}

func (m *mockCartRepo) DeleteAbandoned(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for id, cart := range m.carts {
		if cart.UpdatedAt.Before(cutoff) {
			_ = m.Delete(ctx, id)
			deleted++
		}
	}
	return deleted, nil
}

// --- orders ---

type mockOrderRepo struct {
	orders map[uuid.UUID]*model.Order

	createErr error // forced failure for the next CreateWithItems
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order)}
}

func (m *mockOrderRepo) CreateWithItems(ctx context.Context, order *model.Order, productRepo repository.ProductRepository) error {
	if m.createErr != nil {
		return m.createErr
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.New()
		item.OrderID = order.ID
		if err := productRepo.DecrementInventory(ctx, nil, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return err
		}
	}
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) GetByNumber(_ context.Context, number string) (*model.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]model.Order, int, error) {
	var out []model.Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (m *mockOrderRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status model.PaymentStatus) error {
	if o, ok := m.orders[id]; ok {
		o.PaymentStatus = status
	}
	return nil
}

func (m *mockOrderRepo) NumberTaken(_ context.Context, number string) (bool, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOrderRepo) Count(_ context.Context) (int, error) {
	return len(m.orders), nil
}

func (m *mockOrderRepo) CountByStatus(_ context.Context, status model.OrderStatus) (int, error) {
	count := 0
	for _, o := range m.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *mockOrderRepo) RevenueByStatus(_ context.Context, status model.OrderStatus) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, o := range m.orders {
		if o.Status == status {
			total = total.Add(o.TotalAmount)
		}
	}
	return total, nil
}

func (m *mockOrderRepo) Recent(_ context.Context, limit int) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- categories ---

type mockCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
	products   map[uuid.UUID]int // category id -> product count
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{
		categories: make(map[uuid.UUID]*model.Category),
		products:   make(map[uuid.UUID]int),
	}
}

func (m *mockCategoryRepo) Create(_ context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCategoryRepo) GetBySlug(_ context.Context, slug string) (*model.Category, error) {
	for _, c := range m.categories {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCategoryRepo) List(_ context.Context, activeOnly bool) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.categories {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *model.Category) error {
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepo) SlugTaken(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, c := range m.categories {
		if c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCategoryRepo) MaxPosition(_ context.Context) (int, error) {
	max := 0
	for _, c := range m.categories {
		if c.Position > max {
			max = c.Position
		}
	}
	return max, nil
}

func (m *mockCategoryRepo) CountProducts(_ context.Context, categoryID uuid.UUID) (int, error) {
	return m.products[categoryID], nil
}

func (m *mockCategoryRepo) Neighbor(_ context.Context, position int, up bool) (*model.Category, error) {
	var best *model.Category
	for _, c := range m.categories {
		if up && c.Position < position {
			if best == nil || c.Position > best.Position {
				best = c
			}
		}
		if !up && c.Position > position {
			if best == nil || c.Position < best.Position {
				best = c
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockCategoryRepo) SwapPositions(_ context.Context, a, b *model.Category) error {
	m.categories[a.ID].Position, m.categories[b.ID].Position = b.Position, a.Position
	a.Position, b.Position = b.Position, a.Position
	return nil
}

func (m *mockCategoryRepo) SetPositions(_ context.Context, orderedIDs []uuid.UUID) error {
	for i, id := range orderedIDs {
		if c, ok := m.categories[id]; ok {
			c.Position = i + 1
		}
	}
	return nil
}

// --- reviews ---

type mockReviewRepo struct {
	reviews   map[uuid.UUID]*model.Review
	purchases map[uuid.UUID]map[uuid.UUID]bool // product -> user -> purchased
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{
		reviews:   make(map[uuid.UUID]*model.Review),
		purchases: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *mockReviewRepo) Create(_ context.Context, r *model.Review) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	cp := *r
	m.reviews[r.ID] = &cp
	return nil
}

func (m *mockReviewRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockReviewRepo) ListByProduct(_ context.Context, productID uuid.UUID, approvedOnly bool) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if r.ProductID != productID {
			continue
		}
		if approvedOnly && !r.Approved {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReviewRepo) ListPending(_ context.Context, limit int) ([]model.Review, error) {
	var out []model.Review
	for _, r := range m.reviews {
		if !r.Approved {
			out = append(out, *r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockReviewRepo) CountPending(_ context.Context) (int, error) {
	count := 0
	for _, r := range m.reviews {
		if !r.Approved {
			count++
		}
	}
	return count, nil
}

func (m *mockReviewRepo) RatingSummary(_ context.Context, productID uuid.UUID) (float64, int, error) {
	sum, count := 0, 0
	for _, r := range m.reviews {
		if r.ProductID == productID && r.Approved {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

func (m *mockReviewRepo) Exists(_ context.Context, productID, userID uuid.UUID) (bool, error) {
	for _, r := range m.reviews {
		if r.ProductID == productID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepo) HasPurchased(_ context.Context, productID, userID uuid.UUID) (bool, error) {
	return m.purchases[productID][userID], nil
}

func (m *mockReviewRepo) SetApproved(_ context.Context, id uuid.UUID, approved bool) error {
	if r, ok := m.reviews[id]; ok {
		r.Approved = approved
		return nil
	}
	return repository.ErrNotFound
}

func (m *mockReviewRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.reviews, id)
	return nil
}

// --- users ---

type mockUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role model.Role, limit, offset int) ([]model.User, int, error) {
	var out []model.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role model.Role) (int, error) {
	count := 0
	for _, u := range m.users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

// --- articles ---

type mockArticleRepo struct {
	articles map[uuid.UUID]*model.Article
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[uuid.UUID]*model.Article)}
}

func (m *mockArticleRepo) Create(_ context.Context, a *model.Article) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *mockArticleRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockArticleRepo) GetBySlug(_ context.Context, slug string) (*model.Article, error) {
	for _, a := range m.articles {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockArticleRepo) List(_ context.Context, publishedOnly bool) ([]model.Article, error) {
	var out []model.Article
	for _, a := range m.articles {
		if publishedOnly && !a.Published {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (m *mockArticleRepo) Update(_ context.Context, a *model.Article) error {
	cp := *a
	m.articles[a.ID] = &cp
	return nil
}

func (m *mockArticleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.articles, id)
	return nil
}

func (m *mockArticleRepo) SlugTaken(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, a := range m.articles {
		if a.Slug == slug && a.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}
