package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brookemaisy/storefront-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      model.Role `json:"role"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Position    int       `json:"position"`
	Active      bool      `json:"active"`
}

type ReorderCategoriesRequest struct {
	CategoryIDs []uuid.UUID `json:"category_ids" binding:"required"`
}

// --- Product ---

type CreateProductRequest struct {
	Name             string          `json:"name" binding:"required"`
	Description      string          `json:"description" binding:"required"`
	Price            decimal.Decimal `json:"price" binding:"required"`
	CategoryID       uuid.UUID       `json:"category_id" binding:"required"`
	InventoryCount   int             `json:"inventory_count" binding:"min=0"`
	Active           *bool           `json:"active"`
	Featured         bool            `json:"featured"`
	Weight           decimal.Decimal `json:"weight"`
	Dimensions       string          `json:"dimensions"`
	Materials        string          `json:"materials"`
	CareInstructions string          `json:"care_instructions"`
}

type UpdateProductRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	Price            *decimal.Decimal `json:"price"`
	CategoryID       *uuid.UUID       `json:"category_id"`
	InventoryCount   *int             `json:"inventory_count"`
	Active           *bool            `json:"active"`
	Featured         *bool            `json:"featured"`
	Weight           *decimal.Decimal `json:"weight"`
	Dimensions       *string          `json:"dimensions"`
	Materials        *string          `json:"materials"`
	CareInstructions *string          `json:"care_instructions"`
}

type ListProductsRequest struct {
	Page       int    `form:"page,default=1" binding:"min=1"`
	Limit      int    `form:"limit,default=12" binding:"min=1,max=100"`
	Search     string `form:"search"`
	Query      string `form:"q"`
	CategoryID string `form:"category_id"`
	PriceRange string `form:"price_range" binding:"omitempty,oneof=under_10 10_25 25_50 over_50"`
	InStock    string `form:"availability" binding:"omitempty,oneof=in_stock out_of_stock"`
	Sort       string `form:"sort,default=newest" binding:"oneof=newest oldest name_asc name_desc price_asc price_desc featured relevance"`
}

type ProductResponse struct {
	ID               uuid.UUID       `json:"id"`
	CategoryID       uuid.UUID       `json:"category_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Price            decimal.Decimal `json:"price"`
	SKU              string          `json:"sku"`
	Slug             string          `json:"slug"`
	InventoryCount   int             `json:"inventory_count"`
	Active           bool            `json:"active"`
	Featured         bool            `json:"featured"`
	Weight           decimal.Decimal `json:"weight,omitempty"`
	Dimensions       string          `json:"dimensions,omitempty"`
	Materials        string          `json:"materials,omitempty"`
	CareInstructions string          `json:"care_instructions,omitempty"`
	AverageRating    float64         `json:"average_rating"`
	ReviewsCount     int             `json:"reviews_count"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

type BulkUpdateProductsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
	Active     *bool       `json:"active"`
	Featured   *bool       `json:"featured"`
	CategoryID *uuid.UUID  `json:"category_id"`
}

type BulkDestroyProductsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" binding:"required,min=1"`
}

// --- Product variants ---

type CreateVariantRequest struct {
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	InventoryCount int             `json:"inventory_count" binding:"min=0"`
	Color          string          `json:"color"`
	Size           string          `json:"size"`
	Style          string          `json:"style"`
	Active         *bool           `json:"active"`
}

type UpdateVariantRequest struct {
	Name           *string          `json:"name"`
	Price          *decimal.Decimal `json:"price"`
	InventoryCount *int             `json:"inventory_count"`
	Color          *string          `json:"color"`
	Size           *string          `json:"size"`
	Style          *string          `json:"style"`
	Active         *bool            `json:"active"`
}

type VariantResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku"`
	Price          decimal.Decimal `json:"price"`
	InventoryCount int             `json:"inventory_count"`
	Color          string          `json:"color,omitempty"`
	Size           string          `json:"size,omitempty"`
	Style          string          `json:"style,omitempty"`
	Active         bool            `json:"active"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	// Zero or negative removes the line.
	Quantity int `json:"quantity"`
}

// CartResponse is the payload cart mutations respond with, shaped for the
// storefront cart widget.
type CartResponse struct {
	Cart CartBody `json:"cart"`
}

type CartBody struct {
	TotalItems     int                `json:"total_items"`
	TotalPrice     decimal.Decimal    `json:"total_price"`
	FormattedTotal string             `json:"formatted_total"`
	Items          []CartItemResponse `json:"items"`
}

type CartItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ProductID           uuid.UUID       `json:"product_id"`
	VariantID           *uuid.UUID      `json:"variant_id,omitempty"`
	Name                string          `json:"name"`
	SKU                 string          `json:"sku"`
	Price               decimal.Decimal `json:"price"`
	Quantity            int             `json:"quantity"`
	TotalPrice          decimal.Decimal `json:"total_price"`
	FormattedTotalPrice string          `json:"formatted_total_price"`
	MaxQuantity         int             `json:"max_quantity"`
	InStock             bool            `json:"in_stock"`
}

// --- Order ---

type CheckoutRequest struct {
	Email         string `json:"email" binding:"required,email"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	Phone         string `json:"phone"`
	Address       string `json:"address" binding:"required"`
	City          string `json:"city" binding:"required"`
	State         string `json:"state" binding:"required"`
	ZipCode       string `json:"zip_code" binding:"required"`
	Country       string `json:"country" binding:"required"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
}

type OrderResponse struct {
	ID             uuid.UUID           `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Status         model.OrderStatus   `json:"status"`
	PaymentStatus  model.PaymentStatus `json:"payment_status"`
	Email          string              `json:"email"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Address        string              `json:"address"`
	City           string              `json:"city"`
	State          string              `json:"state"`
	ZipCode        string              `json:"zip_code"`
	Country        string              `json:"country"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	ShippingCost   decimal.Decimal     `json:"shipping_cost"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	FormattedTotal string              `json:"formatted_total"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	VariantID  *uuid.UUID      `json:"variant_id,omitempty"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus model.PaymentStatus `json:"payment_status" binding:"required"`
}

type ListOrdersRequest struct {
	Page          int    `form:"page,default=1" binding:"min=1"`
	Limit         int    `form:"limit,default=25" binding:"min=1,max=100"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
}

// --- Review ---

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"required,max=100"`
	Content string `json:"content" binding:"required,max=1000"`
}

type ReviewResponse struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ReviewerName string    `json:"reviewer_name"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}

type ReviewListResponse struct {
	Reviews       []ReviewResponse `json:"reviews"`
	AverageRating float64          `json:"average_rating"`
	Total         int              `json:"total"`
}

// --- Article ---

type CreateArticleRequest struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Excerpt   string `json:"excerpt" binding:"max=500"`
	Category  string `json:"category"`
	Tags      string `json:"tags"`
	Published bool   `json:"published"`
	Featured  bool   `json:"featured"`
}

type UpdateArticleRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Category  *string `json:"category"`
	Tags      *string `json:"tags"`
	Published *bool   `json:"published"`
	Featured  *bool   `json:"featured"`
}

type ArticleResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content,omitempty"`
	Excerpt   string    `json:"excerpt"`
	Category  string    `json:"category,omitempty"`
	Tags      string    `json:"tags,omitempty"`
	Published bool      `json:"published"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
}

// --- Admin dashboard ---

type DashboardResponse struct {
	Metrics          DashboardMetrics  `json:"metrics"`
	RecentOrders     []OrderResponse   `json:"recent_orders"`
	LowStockProducts []ProductResponse `json:"low_stock_products"`
	PendingReviews   []ReviewResponse  `json:"pending_reviews"`
}

type DashboardMetrics struct {
	TotalProducts  int             `json:"total_products"`
	ActiveProducts int             `json:"active_products"`
	TotalOrders    int             `json:"total_orders"`
	PendingOrders  int             `json:"pending_orders"`
	TotalCustomers int             `json:"total_customers"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	PendingReviews int             `json:"pending_reviews"`
}

type CreateAdminUserRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}
