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

var ErrArticleNotFound = errors.New("article not found")

type ArticleService struct {
	articleRepo repository.ArticleRepository
}

func NewArticleService(articleRepo repository.ArticleRepository) *ArticleService {
	return &ArticleService{articleRepo: articleRepo}
}

func (s *ArticleService) Create(ctx context.Context, authorID uuid.UUID, req dto.CreateArticleRequest) (*dto.ArticleResponse, error) {
	article := &model.Article{
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Slug:      s.slugFor(ctx, req.Title, uuid.Nil),
		Category:  req.Category,
		Tags:      req.Tags,
		Published: req.Published,
		Featured:  req.Featured,
	}
	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	resp := toArticleResponse(article, true)
	return &resp, nil
}

// List returns published articles for the storefront, everything for admins.
// Listing omits full content; GetBySlug includes it.
func (s *ArticleService) List(ctx context.Context, publishedOnly bool) ([]dto.ArticleResponse, error) {
	articles, err := s.articleRepo.List(ctx, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for i := range articles {
		items = append(items, toArticleResponse(&articles[i], false))
	}
	return items, nil
}

func (s *ArticleService) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*dto.ArticleResponse, error) {
	article, err := s.articleRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil || (!article.Published && !includeUnpublished) {
		return nil, ErrArticleNotFound
	}
	resp := toArticleResponse(article, true)
	return &resp, nil
}

func (s *ArticleService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateArticleRequest) (*dto.ArticleResponse, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}

	if req.Title != nil && *req.Title != article.Title {
		article.Title = *req.Title
		article.Slug = s.slugFor(ctx, article.Title, article.ID)
	}
	if req.Content != nil {
		article.Content = *req.Content
	}
	if req.Excerpt != nil {
		article.Excerpt = *req.Excerpt
	}
	if req.Category != nil {
		article.Category = *req.Category
	}
	if req.Tags != nil {
		article.Tags = *req.Tags
	}
	if req.Published != nil {
		article.Published = *req.Published
	}
	if req.Featured != nil {
		article.Featured = *req.Featured
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	resp := toArticleResponse(article, true)
	return &resp, nil
}

func (s *ArticleService) Delete(ctx context.Context, id uuid.UUID) error {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}
	if article == nil {
		return ErrArticleNotFound
	}
	return s.articleRepo.Delete(ctx, id)
}

func (s *ArticleService) slugFor(ctx context.Context, title string, excludeID uuid.UUID) string {
	return catalog.GenerateSlug(title, func(candidate string) bool {
		taken, err := s.articleRepo.SlugTaken(ctx, candidate, excludeID)
		return err == nil && taken
	})
}

func toArticleResponse(a *model.Article, includeContent bool) dto.ArticleResponse {
	resp := dto.ArticleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Slug:      a.Slug,
		Excerpt:   a.Excerpt,
		Category:  a.Category,
		Tags:      a.Tags,
		Published: a.Published,
		Featured:  a.Featured,
		CreatedAt: a.CreatedAt,
	}
	if includeContent {
		resp.Content = a.Content
	}
	return resp
}
