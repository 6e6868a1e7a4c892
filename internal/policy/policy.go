// Package policy centralizes role-and-ownership authorization. Every mutating
// operation asks Allow before touching anything; a denial carries no detail
// about which rule failed.
package policy

import (
	"errors"

	"github.com/google/uuid"

	"github.com/brookemaisy/storefront-api/internal/model"
)

var ErrDenied = errors.New("access denied")

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type Resource string

const (
	ResourceProduct   Resource = "product"
	ResourceCategory  Resource = "category"
	ResourceCart      Resource = "cart"
	ResourceOrder     Resource = "order"
	ResourceReview    Resource = "review"
	ResourceArticle   Resource = "article"
	ResourceUser      Resource = "user"
	ResourceDashboard Resource = "dashboard"
)

// Actor is whoever is making the request. A zero Actor is a guest; guests
// carry only their session id.
type Actor struct {
	ID        uuid.UUID
	Role      model.Role
	SessionID string
}

func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

func (a Actor) IsGuest() bool { return a.ID == uuid.Nil }

// OwnerActor is the acting identity behind a cart owner: the registered user
// when there is one, otherwise the guest session.
func OwnerActor(owner model.CartOwner) Actor {
	return Actor{ID: owner.UserID, Role: model.RoleCustomer, SessionID: owner.SessionID}
}

// Target describes the resource being acted on. OwnerID is the owning user
// (uuid.Nil when no user owns it); OwnerSessionID is the guest session that
// owns it instead. Public reports whether the resource is visible to the
// storefront (active product, approved review, published article).
type Target struct {
	Resource       Resource
	OwnerID        uuid.UUID
	OwnerSessionID string
	Public         bool
}

// CartTarget describes a cart for ownership checks.
func CartTarget(cart *model.Cart) Target {
	t := Target{Resource: ResourceCart, OwnerSessionID: cart.SessionID}
	if cart.UserID != nil {
		t.OwnerID = *cart.UserID
	}
	return t
}

// OrderTarget describes an order for ownership checks.
func OrderTarget(order *model.Order) Target {
	t := Target{Resource: ResourceOrder, OwnerSessionID: order.SessionID}
	if order.UserID != nil {
		t.OwnerID = *order.UserID
	}
	return t
}

// Allow returns nil when actor may perform action on target, ErrDenied
// otherwise.
func Allow(actor Actor, action Action, target Target) error {
	if actor.IsAdmin() {
		return allowAdmin(actor, action, target)
	}
	return allowCustomer(actor, action, target)
}

func allowAdmin(actor Actor, action Action, target Target) error {
	// Admins manage everything, with one exception: they may not delete
	// their own account.
	if target.Resource == ResourceUser && action == ActionDelete && target.OwnerID == actor.ID {
		return ErrDenied
	}
	return nil
}

func allowCustomer(actor Actor, action Action, target Target) error {
	switch target.Resource {
	case ResourceProduct, ResourceCategory, ResourceArticle:
		if action == ActionRead && target.Public {
			return nil
		}
	case ResourceCart, ResourceOrder, ResourceReview:
		// User-owned resources never match by session, and session-owned
		// ones never match a registered user.
		if target.OwnerID != uuid.Nil {
			if !actor.IsGuest() && actor.ID == target.OwnerID {
				return nil
			}
			break
		}
		if actor.IsGuest() && target.OwnerSessionID != "" && actor.SessionID == target.OwnerSessionID {
			return nil
		}
	case ResourceUser:
		if action == ActionUpdate && !actor.IsGuest() && target.OwnerID == actor.ID {
			return nil
		}
	}
	return ErrDenied
}
