package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/brookemaisy/storefront-api/internal/catalog"
	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryHasProducts = errors.New("category still has products")
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	maxPos, err := s.categoryRepo.MaxPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("max position: %w", err)
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
		Slug:        s.slugFor(ctx, req.Name, uuid.Nil),
		Position:    maxPos + 1,
		Active:      true,
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]dto.CategoryResponse, error) {
	categories, err := s.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, toCategoryResponse(&categories[i]))
	}
	return items, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateCategoryRequest) (*dto.CategoryResponse, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}

	if req.Name != nil && *req.Name != category.Name {
		category.Name = *req.Name
		category.Slug = s.slugFor(ctx, category.Name, category.ID)
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Delete refuses to remove a category that still has products; products must
// be moved or deleted first.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	count, err := s.categoryRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return ErrCategoryHasProducts
	}
	return s.categoryRepo.Delete(ctx, id)
}

// Move swaps the category with its neighbor one position up or down. Moving
// past either end is a no-op.
func (s *CategoryService) Move(ctx context.Context, id uuid.UUID, up bool) error {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get category: %w", err)
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	neighbor, err := s.categoryRepo.Neighbor(ctx, category.Position, up)
	if err != nil {
		return fmt.Errorf("find neighbor: %w", err)
	}
	if neighbor == nil {
		return nil
	}
	return s.categoryRepo.SwapPositions(ctx, category, neighbor)
}

func (s *CategoryService) Reorder(ctx context.Context, req dto.ReorderCategoriesRequest) error {
	if err := s.categoryRepo.SetPositions(ctx, req.CategoryIDs); err != nil {
		return fmt.Errorf("reorder categories: %w", err)
	}
	return nil
}

func (s *CategoryService) slugFor(ctx context.Context, name string, excludeID uuid.UUID) string {
	return catalog.GenerateSlug(name, func(candidate string) bool {
		taken, err := s.categoryRepo.SlugTaken(ctx, candidate, excludeID)
		return err == nil && taken
	})
}

func toCategoryResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID: c.ID, Name: c.Name, Description: c.Description,
		Slug: c.Slug, Position: c.Position, Active: c.Active,
	}
}
