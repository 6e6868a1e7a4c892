package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/brookemaisy/storefront-api/internal/catalog"
	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

const productCacheTTL = 5 * time.Minute

type ProductService struct {
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	categoryRepo repository.CategoryRepository
	reviewRepo   repository.ReviewRepository
	redisClient  *redis.Client
}

func NewProductService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	categoryRepo repository.CategoryRepository,
	reviewRepo repository.ReviewRepository,
	redisClient *redis.Client,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		categoryRepo: categoryRepo,
		reviewRepo:   reviewRepo,
		redisClient:  redisClient,
	}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	product := &model.Product{
		CategoryID:       req.CategoryID,
		Name:             req.Name,
		Description:      req.Description,
		Price:            req.Price,
		SKU:              catalog.GenerateSKU(category.Name, req.Name),
		InventoryCount:   req.InventoryCount,
		Active:           true,
		Featured:         req.Featured,
		Weight:           req.Weight,
		Dimensions:       req.Dimensions,
		Materials:        req.Materials,
		CareInstructions: req.CareInstructions,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	product.Slug = s.slugFor(ctx, req.Name, uuid.Nil)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := s.toResponse(ctx, product)
	return &resp, nil
}

// GetBySlug serves the product detail page, so it reads through redis.
func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*dto.ProductResponse, error) {
	cacheKey := "product:slug:" + slug

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return &resp, nil
			}
		}
	}

	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := s.toResponse(ctx, product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			s.redisClient.Set(ctx, cacheKey, data, productCacheTTL)
		}
	}
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	resp := s.toResponse(ctx, product)
	return &resp, nil
}

// List maps the storefront query params onto a repository filter. The public
// listing only ever sees active products; admins pass activeOnly=false.
func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest, activeOnly bool) (*dto.ProductListResponse, error) {
	filter := repository.ProductFilter{
		Search:     req.Search,
		ActiveOnly: activeOnly,
		Sort:       req.Sort,
		Limit:      req.Limit,
		Offset:     (req.Page - 1) * req.Limit,
	}
	if filter.Search == "" {
		filter.Search = req.Query
	}
	if req.CategoryID != "" {
		id, err := uuid.Parse(req.CategoryID)
		if err == nil {
			filter.CategoryID = id
		}
	}
	switch req.PriceRange {
	case "under_10":
		filter.PriceMax = "10"
	case "10_25":
		filter.PriceMin, filter.PriceMax = "10", "25"
	case "25_50":
		filter.PriceMin, filter.PriceMax = "25", "50"
	case "over_50":
		filter.PriceMin = "50"
	}
	switch req.InStock {
	case "in_stock":
		t := true
		filter.InStock = &t
	case "out_of_stock":
		f := false
		filter.InStock = &f
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, s.toResponse(ctx, &products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	oldSlug := product.Slug
	if req.Name != nil && *req.Name != product.Name {
		product.Name = *req.Name
		product.Slug = s.slugFor(ctx, product.Name, product.ID)
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		product.CategoryID = *req.CategoryID
	}
	if req.InventoryCount != nil {
		product.InventoryCount = *req.InventoryCount
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}
	if req.Weight != nil {
		product.Weight = *req.Weight
	}
	if req.Dimensions != nil {
		product.Dimensions = *req.Dimensions
	}
	if req.Materials != nil {
		product.Materials = *req.Materials
	}
	if req.CareInstructions != nil {
		product.CareInstructions = *req.CareInstructions
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.invalidateCache(ctx, oldSlug, product.Slug)
	resp := s.toResponse(ctx, product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx, product.Slug)
	return nil
}

func (s *ProductService) BulkUpdate(ctx context.Context, req dto.BulkUpdateProductsRequest) (int, error) {
	updated, err := s.productRepo.BulkUpdate(ctx, req.ProductIDs, req.Active, req.Featured, req.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("bulk update: %w", err)
	}
	s.invalidateAll(ctx, req.ProductIDs)
	return updated, nil
}

func (s *ProductService) BulkDelete(ctx context.Context, req dto.BulkDestroyProductsRequest) (int, error) {
	s.invalidateAll(ctx, req.ProductIDs)
	deleted, err := s.productRepo.BulkDelete(ctx, req.ProductIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk delete: %w", err)
	}
	return deleted, nil
}

// Duplicate clones a product under a " (Copy)" name with a fresh slug and SKU.
// The copy starts inactive so it never leaks into the storefront half-edited.
func (s *ProductService) Duplicate(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	category, err := s.categoryRepo.GetByID(ctx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}

	categoryName := ""
	if category != nil {
		categoryName = category.Name
	}
	copied := *product
	copied.Name = product.Name + " (Copy)"
	copied.Slug = s.slugFor(ctx, copied.Name, uuid.Nil)
	copied.SKU = catalog.GenerateSKU(categoryName, copied.Name)
	copied.Active = false
	copied.Featured = false

	if err := s.productRepo.Create(ctx, &copied); err != nil {
		return nil, fmt.Errorf("duplicate product: %w", err)
	}
	resp := s.toResponse(ctx, &copied)
	return &resp, nil
}

func (s *ProductService) ToggleActive(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	return s.toggle(ctx, id, func(p *model.Product) { p.Active = !p.Active })
}

func (s *ProductService) ToggleFeatured(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	return s.toggle(ctx, id, func(p *model.Product) { p.Featured = !p.Featured })
}

func (s *ProductService) toggle(ctx context.Context, id uuid.UUID, flip func(*model.Product)) (*dto.ProductResponse, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	flip(product)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.invalidateCache(ctx, product.Slug)
	resp := s.toResponse(ctx, product)
	return &resp, nil
}

// --- Variants ---

func (s *ProductService) CreateVariant(ctx context.Context, productID uuid.UUID, req dto.CreateVariantRequest) (*dto.VariantResponse, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	variant := &model.ProductVariant{
		ProductID:      productID,
		Name:           req.Name,
		SKU:            catalog.GenerateVariantSKU(product.SKU, req.Color, req.Size, req.Style, req.Name),
		Price:          req.Price,
		InventoryCount: req.InventoryCount,
		Color:          req.Color,
		Size:           req.Size,
		Style:          req.Style,
		Active:         true,
	}
	if req.Active != nil {
		variant.Active = *req.Active
	}
	// Variants without their own price inherit the parent's.
	if variant.Price.IsZero() {
		variant.Price = product.Price
	}

	if err := s.variantRepo.Create(ctx, variant); err != nil {
		return nil, fmt.Errorf("create variant: %w", err)
	}
	s.invalidateCache(ctx, product.Slug)
	resp := toVariantResponse(variant)
	return &resp, nil
}

func (s *ProductService) ListVariants(ctx context.Context, productID uuid.UUID, activeOnly bool) ([]dto.VariantResponse, error) {
	variants, err := s.variantRepo.ListByProduct(ctx, productID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	items := make([]dto.VariantResponse, 0, len(variants))
	for i := range variants {
		items = append(items, toVariantResponse(&variants[i]))
	}
	return items, nil
}

func (s *ProductService) UpdateVariant(ctx context.Context, productID, variantID uuid.UUID, req dto.UpdateVariantRequest) (*dto.VariantResponse, error) {
	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	if variant == nil || variant.ProductID != productID {
		return nil, ErrVariantNotFound
	}

	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.Price != nil {
		variant.Price = *req.Price
	}
	if req.InventoryCount != nil {
		variant.InventoryCount = *req.InventoryCount
	}
	if req.Color != nil {
		variant.Color = *req.Color
	}
	if req.Size != nil {
		variant.Size = *req.Size
	}
	if req.Style != nil {
		variant.Style = *req.Style
	}
	if req.Active != nil {
		variant.Active = *req.Active
	}

	if err := s.variantRepo.Update(ctx, variant); err != nil {
		return nil, fmt.Errorf("update variant: %w", err)
	}
	resp := toVariantResponse(variant)
	return &resp, nil
}

func (s *ProductService) DeleteVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	variant, err := s.variantRepo.GetByID(ctx, variantID)
	if err != nil {
		return fmt.Errorf("get variant: %w", err)
	}
	if variant == nil || variant.ProductID != productID {
		return ErrVariantNotFound
	}
	return s.variantRepo.Delete(ctx, variantID)
}

func (s *ProductService) invalidateCache(ctx context.Context, slugs ...string) {
	if s.redisClient == nil {
		return
	}
	for _, slug := range slugs {
		s.redisClient.Del(ctx, "product:slug:"+slug)
	}
}

func (s *ProductService) invalidateAll(ctx context.Context, ids []uuid.UUID) {
	for _, id := range ids {
		product, err := s.productRepo.GetByID(ctx, id)
		if err == nil && product != nil {
			s.invalidateCache(ctx, product.Slug)
		}
	}
}

func (s *ProductService) slugFor(ctx context.Context, name string, excludeID uuid.UUID) string {
	return catalog.GenerateSlug(name, func(candidate string) bool {
		taken, err := s.productRepo.SlugTaken(ctx, candidate, excludeID)
		return err == nil && taken
	})
}

func (s *ProductService) toResponse(ctx context.Context, p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:               p.ID,
		CategoryID:       p.CategoryID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		SKU:              p.SKU,
		Slug:             p.Slug,
		InventoryCount:   p.InventoryCount,
		Active:           p.Active,
		Featured:         p.Featured,
		Weight:           p.Weight,
		Dimensions:       p.Dimensions,
		Materials:        p.Materials,
		CareInstructions: p.CareInstructions,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if avg, count, err := s.reviewRepo.RatingSummary(ctx, p.ID); err == nil {
		resp.AverageRating = avg
		resp.ReviewsCount = count
	}
	return resp
}

func toVariantResponse(v *model.ProductVariant) dto.VariantResponse {
	return dto.VariantResponse{
		ID:             v.ID,
		ProductID:      v.ProductID,
		Name:           v.Name,
		SKU:            v.SKU,
		Price:          v.Price,
		InventoryCount: v.InventoryCount,
		Color:          v.Color,
		Size:           v.Size,
		Style:          v.Style,
		Active:         v.Active,
	}
}
