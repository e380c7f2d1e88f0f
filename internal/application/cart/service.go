package cart

import (
	"context"
	"fmt"

	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service manages per-user carts. The cart never reserves stock: quantities
// are validated against the live stock read so the user gets early
// feedback, but concurrent carts may still over-commit a popular item. The
// order orchestrator is the single point where stock is actually reserved.
type Service struct {
	carts    domcart.Repository
	products catalog.Repository
}

func NewService(carts domcart.Repository, products catalog.Repository) *Service {
	return &Service{carts: carts, products: products}
}

func (s *Service) Get(ctx context.Context, userID string) (*domcart.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// AddItem adds qty of a product to the user's cart, merging with any
// existing quantity. The merged quantity is validated against current
// stock, not against a cached count.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (*domcart.Cart, error) {
	if qty <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}

	current, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	merged := current.Quantity(productID) + qty
	if err := s.validateAgainstStock(ctx, productID, merged); err != nil {
		return nil, err
	}

	if _, err := s.carts.IncrementItem(ctx, userID, productID, qty); err != nil {
		return nil, fmt.Errorf("cart: add item: %w", err)
	}

	logging.FromContext(ctx).Info("cart_item_added",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int("quantity", qty),
	)
	return s.carts.Get(ctx, userID)
}

// UpdateQuantity sets the absolute quantity for a product already chosen.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*domcart.Cart, error) {
	if qty <= 0 {
		return nil, domcart.ErrInvalidQuantity
	}
	if err := s.validateAgainstStock(ctx, productID, qty); err != nil {
		return nil, err
	}
	if err := s.carts.SetItem(ctx, userID, productID, qty); err != nil {
		return nil, fmt.Errorf("cart: update quantity: %w", err)
	}
	return s.carts.Get(ctx, userID)
}

// RemoveItem drops a product from the cart. Removing an absent product is
// a no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domcart.Cart, error) {
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("cart: remove item: %w", err)
	}
	return s.carts.Get(ctx, userID)
}

// Clear empties the cart. Clearing an empty cart succeeds.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

func (s *Service) validateAgainstStock(ctx context.Context, productID string, qty int) error {
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return err
	}
	if !product.Purchasable() {
		return fmt.Errorf("%w: product %s", catalog.ErrUnavailable, productID)
	}
	if qty > product.Stock {
		return fmt.Errorf("%w: product %s has %d, requested %d",
			catalog.ErrInsufficientStock, productID, product.Stock, qty)
	}
	return nil
}
