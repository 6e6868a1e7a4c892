package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/policy"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrProductUnavailable = errors.New("product is not available")

	// ErrInsufficientStock is the repository sentinel, re-exported so the
	// conditional decrement inside checkout surfaces the same way as the
	// service-level stock checks.
	ErrInsufficientStock = repository.ErrInsufficientStock
)

// maxLineQuantity caps how many units of one line a single cart may hold.
const maxLineQuantity = 10

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, variantRepo repository.VariantRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo, variantRepo: variantRepo}
}

// Get returns the owner's cart, creating an empty one on first touch.
func (s *CartService) Get(ctx context.Context, owner model.CartOwner) (*dto.CartResponse, error) {
	cart, err := s.cart(ctx, owner, policy.ActionRead)
	if err != nil {
		return nil, err
	}
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	return toCartResponse(full), nil
}

// AddItem puts quantity units of a product (or one of its variants) into the
// owner's cart. Re-adding an existing line adds to its quantity. The combined
// quantity may not exceed available inventory or the per-line cap.
func (s *CartService) AddItem(ctx context.Context, owner model.CartOwner, req dto.AddCartItemRequest) (*dto.CartResponse, error) {
	source, err := s.resolveSource(ctx, req.ProductID, req.VariantID)
	if err != nil {
		return nil, err
	}
	info := source.Resolve()

	cart, err := s.cart(ctx, owner, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	existing := 0
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	for _, item := range full.Items {
		if item.ProductID == req.ProductID && equalVariant(item.VariantID, req.VariantID) {
			existing = item.Quantity
			break
		}
	}

	if err := checkQuantity(existing+req.Quantity, info.InventoryCount); err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpsertItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.respond(ctx, cart.ID)
}

// UpdateItemQuantity sets a line's quantity. Zero or negative removes the
// line entirely.
func (s *CartService) UpdateItemQuantity(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	cart, err := s.cart(ctx, owner, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	if quantity <= 0 {
		if err := s.deleteItem(ctx, itemID); err != nil {
			return nil, err
		}
		return s.respond(ctx, cart.ID)
	}

	source, err := s.resolveSource(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return nil, err
	}
	if err := checkQuantity(quantity, source.Resolve().InventoryCount); err != nil {
		return nil, err
	}

	if err := s.cartRepo.SetItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return s.respond(ctx, cart.ID)
}

func (s *CartService) RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cart(ctx, owner, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	if item == nil {
		return nil, ErrCartItemNotFound
	}

	if err := s.deleteItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.respond(ctx, cart.ID)
}

func (s *CartService) Clear(ctx context.Context, owner model.CartOwner) (*dto.CartResponse, error) {
	cart, err := s.cart(ctx, owner, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Clear(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return s.respond(ctx, cart.ID)
}

// cart fetches or creates the owner's cart and routes the touch through the
// policy, keeping the ownership rule in one place.
func (s *CartService) cart(ctx context.Context, owner model.CartOwner, action policy.Action) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if err := policy.Allow(policy.OwnerActor(owner), action, policy.CartTarget(cart)); err != nil {
		return nil, err
	}
	return cart, nil
}

// deleteItem tolerates a line vanishing between the ownership check and the
// delete, surfacing it as the usual not-found.
func (s *CartService) deleteItem(ctx context.Context, itemID uuid.UUID) error {
	if err := s.cartRepo.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCartItemNotFound
		}
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// Merge folds the guest session's cart into the user's cart. Called once at
// login; quantities of shared lines add together, then the guest cart is
// dropped. Missing guest carts are fine.
func (s *CartService) Merge(ctx context.Context, userID uuid.UUID, sessionID string) error {
	guestCart, err := s.cartRepo.FindByOwner(ctx, model.GuestOwner(sessionID))
	if err != nil {
		return fmt.Errorf("find guest cart: %w", err)
	}
	if guestCart == nil {
		return nil
	}

	full, err := s.cartRepo.GetWithItems(ctx, guestCart.ID)
	if err != nil {
		return fmt.Errorf("get guest cart items: %w", err)
	}
	if full.Empty() {
		return s.cartRepo.Delete(ctx, guestCart.ID)
	}

	userCart, err := s.cartRepo.GetOrCreate(ctx, model.UserOwner(userID))
	if err != nil {
		return fmt.Errorf("get user cart: %w", err)
	}

	for _, item := range full.Items {
		if err := s.cartRepo.UpsertItem(ctx, &model.CartItem{
			CartID:    userCart.ID,
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}); err != nil {
			return fmt.Errorf("merge cart item: %w", err)
		}
	}
	return s.cartRepo.Delete(ctx, guestCart.ID)
}

func (s *CartService) resolveSource(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (model.LineSource, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return model.LineSource{}, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return model.LineSource{}, ErrProductNotFound
	}
	if !product.Active {
		return model.LineSource{}, ErrProductUnavailable
	}

	source := model.LineSource{Product: product}
	if variantID != nil {
		variant, err := s.variantRepo.GetByID(ctx, *variantID)
		if err != nil {
			return model.LineSource{}, fmt.Errorf("get variant: %w", err)
		}
		if variant == nil || variant.ProductID != productID {
			return model.LineSource{}, ErrVariantNotFound
		}
		if !variant.Active {
			return model.LineSource{}, ErrProductUnavailable
		}
		source.Variant = variant
	}
	return source, nil
}

func checkQuantity(want, available int) error {
	if want > available {
		return ErrInsufficientStock
	}
	if want > maxLineQuantity {
		return ErrInsufficientStock
	}
	return nil
}

func (s *CartService) respond(ctx context.Context, cartID uuid.UUID) (*dto.CartResponse, error) {
	full, err := s.cartRepo.GetWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	return toCartResponse(full), nil
}

func equalVariant(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toCartResponse(cart *model.Cart) *dto.CartResponse {
	body := dto.CartBody{
		TotalItems:     cart.TotalItems(),
		TotalPrice:     cart.TotalPrice(),
		FormattedTotal: formatMoney(cart.TotalPrice()),
		Items:          make([]dto.CartItemResponse, 0, len(cart.Items)),
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		body.Items = append(body.Items, dto.CartItemResponse{
			ID:                  item.ID,
			ProductID:           item.ProductID,
			VariantID:           item.VariantID,
			Name:                item.Name,
			SKU:                 item.SKU,
			Price:               item.UnitPrice,
			Quantity:            item.Quantity,
			TotalPrice:          item.TotalPrice(),
			FormattedTotalPrice: formatMoney(item.TotalPrice()),
			MaxQuantity:         item.MaxQuantity(),
			InStock:             item.InventoryCount > 0,
		})
	}
	return &dto.CartResponse{Cart: body}
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
