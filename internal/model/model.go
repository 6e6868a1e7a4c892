package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
	Phone     string
	Address   string
	City      string
	State     string
	ZipCode   string
	Country   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	return name
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Description string
	Slug        string
	Position    int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Product struct {
	ID               uuid.UUID
	CategoryID       uuid.UUID
	Name             string
	Description      string
	Price            decimal.Decimal
	SKU              string
	Slug             string
	InventoryCount   int
	Active           bool
	Featured         bool
	Weight           decimal.Decimal
	Dimensions       string
	Materials        string
	CareInstructions string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Product) InStock() bool { return p.InventoryCount > 0 }

func (p *Product) LowStock(threshold int) bool { return p.InventoryCount <= threshold }

type ProductVariant struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	Name           string
	SKU            string
	Price          decimal.Decimal
	InventoryCount int
	Color          string
	Size           string
	Style          string
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (v *ProductVariant) InStock() bool { return v.InventoryCount > 0 }

// Cart is owned by exactly one of a registered user or an anonymous session.
type Cart struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	SessionID string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem is unique per (cart, product, variant); re-adding the same line
// increments its quantity instead of creating a duplicate.
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
	// Denormalized from the referenced product/variant at read time.
	UnitPrice      decimal.Decimal
	Name           string
	SKU            string
	InventoryCount int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (i *CartItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *CartItem) InStockFor(quantity int) bool { return i.InventoryCount >= quantity }

// MaxQuantity caps a single cart line at 10 units or available inventory,
// whichever is lower.
func (i *CartItem) MaxQuantity() int {
	if i.InventoryCount < 10 {
		return i.InventoryCount
	}
	return 10
}

// CartOwner identifies who a cart belongs to: a registered user or a guest
// session, never both.
type CartOwner struct {
	UserID    uuid.UUID
	SessionID string
}

func UserOwner(id uuid.UUID) CartOwner { return CartOwner{UserID: id} }

func GuestOwner(sessionID string) CartOwner { return CartOwner{SessionID: sessionID} }

func (o CartOwner) IsGuest() bool { return o.UserID == uuid.Nil }

type Order struct {
	ID            uuid.UUID
	OrderNumber   string
	UserID        *uuid.UUID
	SessionID     string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Email         string
	FirstName     string
	LastName      string
	Phone         string
	Address       string
	City          string
	State         string
	ZipCode       string
	Country       string
	Notes         string
	PaymentMethod string
	TotalAmount   decimal.Decimal
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

func (o *Order) ItemsCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// OrderItem is a value copy of a cart line taken at checkout. UnitPrice and
// TotalPrice are frozen then and never change with the catalog afterwards.
type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ProductID  uuid.UUID
	VariantID  *uuid.UUID
	Name       string
	SKU        string
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
}

type Review struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	UserID           uuid.UUID
	Rating           int
	Title            string
	Content          string
	VerifiedPurchase bool
	HelpfulCount     int
	Approved         bool
	ReviewerName     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Article struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Content   string
	Excerpt   string
	Slug      string
	Category  string
	Tags      string
	Published bool
	Featured  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MailEvent struct {
	Type        string    `json:"type"`
	OrderNumber string    `json:"order_number"`
	Email       string    `json:"email"`
	SentAt      time.Time `json:"sent_at"`
}

const (
	MailOrderConfirmation = "order_confirmation"
	MailTracking          = "tracking"
)
