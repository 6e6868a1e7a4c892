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

type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Article, error)
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	List(ctx context.Context, publishedOnly bool) ([]model.Article, error)
	Update(ctx context.Context, article *model.Article) error
	Delete(ctx context.Context, id uuid.UUID) error
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

type pgArticleRepo struct{ pool *pgxpool.Pool }

func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &pgArticleRepo{pool: pool}
}

const articleColumns = `id, author_id, title, content, excerpt, slug, category,
	tags, published, featured, created_at, updated_at`

func scanArticle(row pgx.Row) (*model.Article, error) {
	a := &model.Article{}
	err := row.Scan(
		&a.ID, &a.AuthorID, &a.Title, &a.Content, &a.Excerpt, &a.Slug, &a.Category,
		&a.Tags, &a.Published, &a.Featured, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return a, nil
}

func (r *pgArticleRepo) Create(ctx context.Context, article *model.Article) error {
	article.ID = uuid.New()
	query := `INSERT INTO articles (id, author_id, title, content, excerpt, slug, category,
				tags, published, featured, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		article.ID, article.AuthorID, article.Title, article.Content, article.Excerpt,
		article.Slug, article.Category, article.Tags, article.Published, article.Featured,
	).Scan(&article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (r *pgArticleRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *pgArticleRepo) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE slug = $1`, slug)
	return scanArticle(row)
}

func (r *pgArticleRepo) List(ctx context.Context, publishedOnly bool) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, nil
}

func (r *pgArticleRepo) Update(ctx context.Context, article *model.Article) error {
	query := `UPDATE articles SET title=$2, content=$3, excerpt=$4, slug=$5, category=$6,
				tags=$7, published=$8, featured=$9, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		article.ID, article.Title, article.Content, article.Excerpt, article.Slug,
		article.Category, article.Tags, article.Published, article.Featured,
	).Scan(&article.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

func (r *pgArticleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgArticleRepo) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return taken, nil
}
