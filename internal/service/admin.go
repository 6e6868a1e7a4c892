package service

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/policy"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

// lowStockThreshold flags products for the dashboard restock list.
const lowStockThreshold = 5

const dashboardListLimit = 5

type AdminService struct {
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	reviewRepo  repository.ReviewRepository
}

func NewAdminService(
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	reviewRepo repository.ReviewRepository,
) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		reviewRepo:  reviewRepo,
	}
}

func (s *AdminService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	metrics, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.orderRepo.Recent(ctx, dashboardListLimit)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	lowStock, _, err := s.productRepo.List(ctx, repository.ProductFilter{
		ActiveOnly:  true,
		LowStockMax: lowStockThreshold,
		Sort:        "oldest",
		Limit:       dashboardListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("low stock products: %w", err)
	}
	pending, err := s.reviewRepo.ListPending(ctx, dashboardListLimit)
	if err != nil {
		return nil, fmt.Errorf("pending reviews: %w", err)
	}

	resp := &dto.DashboardResponse{Metrics: *metrics}
	for i := range recent {
		resp.RecentOrders = append(resp.RecentOrders, toOrderResponse(&recent[i]))
	}
	for i := range lowStock {
		p := &lowStock[i]
		resp.LowStockProducts = append(resp.LowStockProducts, dto.ProductResponse{
			ID: p.ID, CategoryID: p.CategoryID, Name: p.Name, Price: p.Price,
			SKU: p.SKU, Slug: p.Slug, InventoryCount: p.InventoryCount,
			Active: p.Active, Featured: p.Featured,
			CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
		})
	}
	for i := range pending {
		resp.PendingReviews = append(resp.PendingReviews, toReviewResponse(&pending[i]))
	}
	return resp, nil
}

// Metrics backs both the dashboard and the analytics endpoint. Revenue counts
// delivered orders only.
func (s *AdminService) Metrics(ctx context.Context) (*dto.DashboardMetrics, error) {
	totalProducts, err := s.productRepo.Count(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	activeProducts, err := s.productRepo.Count(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count active products: %w", err)
	}
	totalOrders, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	pendingOrders, err := s.orderRepo.CountByStatus(ctx, model.OrderStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	customers, err := s.userRepo.CountByRole(ctx, model.RoleCustomer)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	revenue, err := s.orderRepo.RevenueByStatus(ctx, model.OrderStatusDelivered)
	if err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	pendingReviews, err := s.reviewRepo.CountPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("count pending reviews: %w", err)
	}

	return &dto.DashboardMetrics{
		TotalProducts:  totalProducts,
		ActiveProducts: activeProducts,
		TotalOrders:    totalOrders,
		PendingOrders:  pendingOrders,
		TotalCustomers: customers,
		TotalRevenue:   revenue,
		PendingReviews: pendingReviews,
	}, nil
}

func (s *AdminService) ListCustomers(ctx context.Context, page, limit int) ([]dto.UserResponse, int, error) {
	users, total, err := s.userRepo.ListByRole(ctx, model.RoleCustomer, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return items, total, nil
}

// DeleteUser removes an account. The policy blocks admins from deleting
// themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	if err := policy.Allow(actor, policy.ActionDelete, policy.Target{
		Resource: policy.ResourceUser,
		OwnerID:  id,
	}); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.userRepo.Delete(ctx, id)
}

// productCSVRow is the export layout for the back-office spreadsheet flow.
type productCSVRow struct {
	SKU            string          `csv:"sku"`
	Name           string          `csv:"name"`
	Slug           string          `csv:"slug"`
	Price          decimal.Decimal `csv:"price"`
	InventoryCount int             `csv:"inventory_count"`
	Active         bool            `csv:"active"`
	Featured       bool            `csv:"featured"`
	CreatedAt      string          `csv:"created_at"`
}

// ExportProductsCSV streams the full catalog as CSV.
func (s *AdminService) ExportProductsCSV(ctx context.Context, w io.Writer) error {
	products, _, err := s.productRepo.List(ctx, repository.ProductFilter{
		Sort:  "oldest",
		Limit: 10000,
	})
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	rows := make([]productCSVRow, 0, len(products))
	for i := range products {
		p := &products[i]
		rows = append(rows, productCSVRow{
			SKU:            p.SKU,
			Name:           p.Name,
			Slug:           p.Slug,
			Price:          p.Price,
			InventoryCount: p.InventoryCount,
			Active:         p.Active,
			Featured:       p.Featured,
			CreatedAt:      p.CreatedAt.Format("2006-01-02"),
		})
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
