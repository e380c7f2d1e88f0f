package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("coupon: not found")
	ErrInvalid           = errors.New("coupon: not applicable")
	ErrUsageLimitReached = errors.New("coupon: usage limit reached")
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "PERCENTAGE"
	DiscountFixedAmount DiscountType = "FIXED_AMOUNT"
)

type Coupon struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	ExpiresAt   time.Time
	MinPurchase decimal.Decimal
	Active      bool
	// UsageLimit is nil for unlimited coupons.
	UsageLimit *int
	TimesUsed  int
}

// Evaluation is the outcome of applying a coupon to a cart total.
type Evaluation struct {
	Valid    bool
	Reason   string
	Discount decimal.Decimal
}

// Evaluate checks validity and computes the discount for the given cart
// total. Checks run in order and short-circuit: active flag, expiry, usage
// limit, minimum purchase. The discount is clamped to the cart total so an
// order can never go negative. Evaluate performs no side effects; the usage
// counter is incremented by the order orchestrator after the order is
// durably created.
func Evaluate(c *Coupon, cartTotal decimal.Decimal, now time.Time) Evaluation {
	if !c.Active {
		return Evaluation{Reason: "coupon is inactive", Discount: decimal.Zero}
	}
	if now.After(c.ExpiresAt) {
		return Evaluation{Reason: "coupon has expired", Discount: decimal.Zero}
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return Evaluation{Reason: "coupon usage limit reached", Discount: decimal.Zero}
	}
	if cartTotal.LessThan(c.MinPurchase) {
		return Evaluation{Reason: "cart total below minimum purchase amount", Discount: decimal.Zero}
	}

	var discount decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		discount = cartTotal.Mul(c.Value).Div(decimal.NewFromInt(100))
	case DiscountFixedAmount:
		discount = c.Value
	default:
		return Evaluation{Reason: "unknown discount type", Discount: decimal.Zero}
	}

	if discount.GreaterThan(cartTotal) {
		discount = cartTotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	return Evaluation{Valid: true, Discount: discount}
}

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	// IncrementUsage bumps the times-used counter, guarded against the
	// usage limit; returns ErrUsageLimitReached if the limit was hit
	// concurrently.
	IncrementUsage(ctx context.Context, code string) error
}
