package cart

import (
	"context"
	"errors"
)

var (
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Cart holds a user's pending selection. Carts are created lazily on first
// access and are only ever emptied, never deleted. Adding an item never
// touches product stock; stock is committed at order creation only.
type Cart struct {
	UserID string
	Items  []Item
}

type Item struct {
	ProductID string
	Quantity  int
}

// Quantity returns the current quantity for productID, zero if absent.
func (c *Cart) Quantity(productID string) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (c *Cart) Empty() bool { return len(c.Items) == 0 }

type Repository interface {
	// Get returns the user's cart, an empty cart if none exists yet.
	Get(ctx context.Context, userID string) (*Cart, error)
	// IncrementItem atomically adds delta to the item's quantity and
	// returns the resulting quantity. A result of zero removes the item.
	IncrementItem(ctx context.Context, userID, productID string, delta int) (int, error)
	SetItem(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	Clear(ctx context.Context, userID string) error
}
