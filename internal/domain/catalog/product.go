package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrUnavailable       = errors.New("catalog: product is not available for purchase")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	ErrVersionConflict   = errors.New("catalog: concurrent stock modification")
)

// Product is the catalog's view of a sellable item. The catalog itself is
// owned elsewhere; this core only reads products and mutates stock through
// the compare-and-swap primitive below.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Version   int64
	Active    bool
	Approved  bool
	UpdatedAt time.Time
}

// Purchasable reports whether the product may be added to a cart or ordered.
func (p *Product) Purchasable() bool {
	return p.Active && p.Approved
}

type Repository interface {
	Get(ctx context.Context, productID string) (*Product, error)
	// CompareAndSwapStock writes newStock only if the stored version still
	// equals expectedVersion, bumping the version on success. Returns
	// ErrVersionConflict when the token is stale.
	CompareAndSwapStock(ctx context.Context, productID string, expectedVersion int64, newStock int) error
}
