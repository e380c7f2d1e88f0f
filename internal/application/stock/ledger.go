package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	"go.uber.org/zap"
)

// maxCASAttempts bounds the optimistic-lock retry loop. Losers of a
// sustained race surface the conflict to their caller instead of spinning.
const maxCASAttempts = 3

// Ledger is the single owner of product stock mutation. Every decrement
// and restore goes through a read-modify-write cycle guarded by the
// product's version token; no caller ever computes a new stock value from
// a cached read.
type Ledger struct {
	products catalog.Repository
}

func NewLedger(products catalog.Repository) *Ledger {
	return &Ledger{products: products}
}

// Reserve decrements stock by qty, failing with
// catalog.ErrInsufficientStock when not enough is available and with
// catalog.ErrVersionConflict when the version token stays stale after the
// bounded retries. It returns the product as read before the decrement so
// callers can snapshot the price.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) (*catalog.Product, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("stock: reserve quantity must be positive, got %d", qty)
	}

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		product, err := l.products.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product.Stock < qty {
			return nil, fmt.Errorf("%w: product %s has %d, requested %d",
				catalog.ErrInsufficientStock, productID, product.Stock, qty)
		}

		err = l.products.CompareAndSwapStock(ctx, productID, product.Version, product.Stock-qty)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, catalog.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("stock: reserve %s: %w", productID, lastErr)
}

// Restore returns qty units to the product after a cancellation or refund.
// The product may have been deleted since the order was placed; in that
// case restoration is a logged no-op.
func (l *Ledger) Restore(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("stock: restore quantity must be positive, got %d", qty)
	}

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		product, err := l.products.Get(ctx, productID)
		if errors.Is(err, catalog.ErrNotFound) {
			logging.FromContext(ctx).Warn("stock_restore_skipped_product_gone",
				zap.String("product_id", productID),
				zap.Int("quantity", qty),
			)
			return nil
		}
		if err != nil {
			return err
		}

		err = l.products.CompareAndSwapStock(ctx, productID, product.Version, product.Stock+qty)
		if err == nil {
			return nil
		}
		if !errors.Is(err, catalog.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("stock: restore %s: %w", productID, lastErr)
}
