package model

import "time"

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

// RefundWindow is how long after placement a delivered order stays eligible
// for a full refund.
const RefundWindow = 30 * 24 * time.Hour

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
		OrderStatusPartiallyRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order placed at placedAt may move from s
// to next. The forward path is pending → processing → shipped → delivered;
// cancellation exits from pending or processing only, and refunds exit from
// delivered only. Nothing moves backwards.
func (s OrderStatus) CanTransitionTo(next OrderStatus, placedAt time.Time) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusShipped || next == OrderStatusCancelled
	case OrderStatusShipped:
		return next == OrderStatusDelivered
	case OrderStatusDelivered:
		if next == OrderStatusRefunded {
			return time.Since(placedAt) <= RefundWindow
		}
		return next == OrderStatusPartiallyRefunded
	default:
		// cancelled and refund states are terminal
		return false
	}
}

func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusProcessing
}

func (o *Order) CanBeRefunded() bool {
	return o.Status == OrderStatusDelivered && time.Since(o.CreatedAt) <= RefundWindow
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "payment_pending"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "payment_refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed,
		PaymentStatusRefunded, PaymentStatusPartiallyRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether the payment state may advance from s to
// next. Payment status moves independently of fulfillment status.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusFailed
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded || next == PaymentStatusPartiallyRefunded
	case PaymentStatusFailed:
		return next == PaymentStatusPaid
	default:
		return false
	}
}
