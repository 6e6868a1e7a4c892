package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"github.com/brookemaisy/storefront-api/internal/dto"
	"github.com/brookemaisy/storefront-api/internal/model"
	"github.com/brookemaisy/storefront-api/internal/policy"
	"github.com/brookemaisy/storefront-api/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderAccessDenied = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Checkout pricing. Tax is flat 8%; shipping is $5.99, waived once the
// subtotal reaches $50.
var (
	taxRate               = decimal.NewFromFloat(0.08)
	shippingCost          = decimal.NewFromFloat(5.99)
	freeShippingThreshold = decimal.NewFromInt(50)
)

const mailQueue = "mail_events"

type OrderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	amqpCh      *amqp.Channel
	logger      *slog.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	amqpCh *amqp.Channel,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		variantRepo: variantRepo,
		amqpCh:      amqpCh,
		logger:      logger,
	}
}

// Checkout turns the owner's cart into an order. Every line is re-resolved
// against the live catalog and the whole order is rejected before any write
// when stock is short. Unit prices are frozen into the order items; the cart
// is dropped only after the order is committed.
func (s *OrderService) Checkout(ctx context.Context, owner model.CartOwner, req dto.CheckoutRequest) (*dto.OrderResponse, error) {
	cart, err := s.cartRepo.FindByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("find cart: %w", err)
	}
	if cart == nil {
		return nil, ErrEmptyCart
	}
	full, err := s.cartRepo.GetWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if full == nil || full.Empty() {
		return nil, ErrEmptyCart
	}

	var items []model.OrderItem
	subtotal := decimal.Zero
	for _, ci := range full.Items {
		source, err := s.resolveLine(ctx, ci)
		if err != nil {
			return nil, err
		}
		info := source.Resolve()
		if info.InventoryCount < ci.Quantity {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, info.Name)
		}

		lineTotal := info.Price.Mul(decimal.NewFromInt(int64(ci.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, model.OrderItem{
			ProductID:  ci.ProductID,
			VariantID:  ci.VariantID,
			Name:       info.Name,
			SKU:        info.SKU,
			Quantity:   ci.Quantity,
			UnitPrice:  info.Price,
			TotalPrice: lineTotal,
		})
	}

	tax := subtotal.Mul(taxRate).Round(2)
	shipping := shippingCost
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	total := subtotal.Add(tax).Add(shipping)

	number, err := s.generateOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		OrderNumber:   number,
		SessionID:     owner.SessionID,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
		Country:       req.Country,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		TotalAmount:   total,
		Items:         items,
	}
	if !owner.IsGuest() {
		id := owner.UserID
		order.UserID = &id
	}

	if err := s.orderRepo.CreateWithItems(ctx, order, s.productRepo); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.publishMail(ctx, model.MailEvent{
		Type:        model.MailOrderConfirmation,
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		SentAt:      time.Now(),
	})

	if err := s.cartRepo.Delete(ctx, cart.ID); err != nil {
		s.logger.Warn("clear cart after checkout", "cart_id", cart.ID, "error", err)
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) resolveLine(ctx context.Context, ci model.CartItem) (model.LineSource, error) {
	product, err := s.productRepo.GetByID(ctx, ci.ProductID)
	if err != nil {
		return model.LineSource{}, fmt.Errorf("get product: %w", err)
	}
	if product == nil || !product.Active {
		return model.LineSource{}, fmt.Errorf("%w: %s", ErrProductUnavailable, ci.Name)
	}
	source := model.LineSource{Product: product}
	if ci.VariantID != nil {
		variant, err := s.variantRepo.GetByID(ctx, *ci.VariantID)
		if err != nil {
			return model.LineSource{}, fmt.Errorf("get variant: %w", err)
		}
		if variant == nil || !variant.Active {
			return model.LineSource{}, fmt.Errorf("%w: %s", ErrProductUnavailable, ci.Name)
		}
		source.Variant = variant
	}
	return source, nil
}

// generateOrderNumber builds BM<YYYYMMDD><8 uppercase hex> and retries until
// it lands on an unused one.
func (s *OrderService) generateOrderNumber(ctx context.Context) (string, error) {
	for {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("generate order number: %w", err)
		}
		number := fmt.Sprintf("BM%s%s", time.Now().Format("20060102"), strings.ToUpper(hex.EncodeToString(b)))

		taken, err := s.orderRepo.NumberTaken(ctx, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
}

// GetByNumber returns the order when the caller may see it: the owning user,
// the guest session that placed it, or an admin.
func (s *OrderService) GetByNumber(ctx context.Context, actor policy.Actor, number string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if err := policy.Allow(actor, policy.ActionRead, policy.OrderTarget(order)); err != nil {
		return nil, ErrOrderAccessDenied
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID) ([]dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return items, nil
}

func (s *OrderService) List(ctx context.Context, req dto.ListOrdersRequest) (*dto.OrderListResponse, error) {
	orders, total, err := s.orderRepo.List(ctx, repository.OrderFilter{
		Status:        model.OrderStatus(req.Status),
		PaymentStatus: model.PaymentStatus(req.PaymentStatus),
		Limit:         req.Limit,
		Offset:        (req.Page - 1) * req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, toOrderResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Orders: items, Total: total}, nil
}

// UpdateStatus advances the fulfillment state, enforcing the machine. Moving
// to shipped also queues the tracking email.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.OrderStatus) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !next.Valid() || !order.Status.CanTransitionTo(next, order.CreatedAt) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next

	if next == model.OrderStatusShipped {
		s.publishMail(ctx, model.MailEvent{
			Type:        model.MailTracking,
			OrderNumber: order.OrderNumber,
			Email:       order.Email,
			SentAt:      time.Now(),
		})
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, next model.PaymentStatus) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !next.Valid() || !order.PaymentStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.PaymentStatus, next)
	}

	if err := s.orderRepo.UpdatePaymentStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	order.PaymentStatus = next

	resp := toOrderResponse(order)
	return &resp, nil
}

// SendTrackingEmail re-queues the tracking email for a shipped order.
func (s *OrderService) SendTrackingEmail(ctx context.Context, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return ErrOrderNotFound
	}
	s.publishMail(ctx, model.MailEvent{
		Type:        model.MailTracking,
		OrderNumber: order.OrderNumber,
		Email:       order.Email,
		SentAt:      time.Now(),
	})
	return nil
}

func (s *OrderService) publishMail(ctx context.Context, event model.MailEvent) {
	if s.amqpCh == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := s.amqpCh.PublishWithContext(ctx, "", mailQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		s.logger.Warn("publish mail event", "type", event.Type, "order", event.OrderNumber, "error", err)
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	subtotal := o.Subtotal()
	tax := subtotal.Mul(taxRate).Round(2)
	shipping := o.TotalAmount.Sub(subtotal).Sub(tax)
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}

	resp := dto.OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		Email:          o.Email,
		FirstName:      o.FirstName,
		LastName:       o.LastName,
		Address:        o.Address,
		City:           o.City,
		State:          o.State,
		ZipCode:        o.ZipCode,
		Country:        o.Country,
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		TotalAmount:    o.TotalAmount,
		FormattedTotal: formatMoney(o.TotalAmount),
		CreatedAt:      o.CreatedAt,
	}
	for i := range o.Items {
		item := &o.Items[i]
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Name:       item.Name,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return resp
}
