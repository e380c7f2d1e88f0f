package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name         string
		coupon       Coupon
		cartTotal    string
		wantValid    bool
		wantReason   string
		wantDiscount string
	}{
		{
			name: "percentage discount",
			coupon: Coupon{
				Code: "TEN", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: future, Active: true,
			},
			cartTotal:    "200.00",
			wantValid:    true,
			wantDiscount: "20",
		},
		{
			name: "fixed amount discount",
			coupon: Coupon{
				Code: "FIVE_OFF", Type: DiscountFixedAmount, Value: decimal.NewFromInt(5),
				ExpiresAt: future, Active: true,
			},
			cartTotal:    "50.00",
			wantValid:    true,
			wantDiscount: "5",
		},
		{
			name: "fixed discount clamped to cart total",
			coupon: Coupon{
				Code: "BIG", Type: DiscountFixedAmount, Value: decimal.NewFromInt(100),
				ExpiresAt: future, Active: true,
			},
			cartTotal:    "30.00",
			wantValid:    true,
			wantDiscount: "30",
		},
		{
			name: "inactive",
			coupon: Coupon{
				Code: "OLD", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: future, Active: false,
			},
			cartTotal:  "100.00",
			wantReason: "coupon is inactive",
		},
		{
			name: "expired",
			coupon: Coupon{
				Code: "LATE", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: past, Active: true,
			},
			cartTotal:  "100.00",
			wantReason: "coupon has expired",
		},
		{
			name: "usage limit reached",
			coupon: Coupon{
				Code: "MAXED", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: future, Active: true, UsageLimit: intPtr(3), TimesUsed: 3,
			},
			cartTotal:  "100.00",
			wantReason: "coupon usage limit reached",
		},
		{
			name: "below minimum purchase",
			coupon: Coupon{
				Code: "MIN50", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: future, Active: true, MinPurchase: decimal.NewFromInt(50),
			},
			cartTotal:  "49.99",
			wantReason: "cart total below minimum purchase amount",
		},
		{
			name: "inactive wins over expired",
			coupon: Coupon{
				Code: "BOTH", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				ExpiresAt: past, Active: false,
			},
			cartTotal:  "100.00",
			wantReason: "coupon is inactive",
		},
		{
			name: "nil usage limit means unlimited",
			coupon: Coupon{
				Code: "FOREVER", Type: DiscountFixedAmount, Value: decimal.NewFromInt(1),
				ExpiresAt: future, Active: true, TimesUsed: 100000,
			},
			cartTotal:    "10.00",
			wantValid:    true,
			wantDiscount: "1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, _ := decimal.NewFromString(tt.cartTotal)
			eval := Evaluate(&tt.coupon, total, now)

			assert.Equal(t, tt.wantValid, eval.Valid)
			if tt.wantValid {
				assert.True(t, eval.Discount.Equal(decimal.RequireFromString(tt.wantDiscount)),
					"discount = %s, want %s", eval.Discount, tt.wantDiscount)
			} else {
				assert.Equal(t, tt.wantReason, eval.Reason)
				assert.True(t, eval.Discount.IsZero())
			}
		})
	}
}

func TestEvaluateExactlyAtBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	c := &Coupon{
		Code: "EDGE", Type: DiscountPercentage, Value: decimal.NewFromInt(10),
		ExpiresAt: now, Active: true, MinPurchase: decimal.NewFromInt(100),
	}

	// not yet expired at the exact expiry instant
	eval := Evaluate(c, decimal.NewFromInt(100), now)
	assert.True(t, eval.Valid)

	// total exactly at the minimum qualifies
	assert.True(t, eval.Discount.Equal(decimal.NewFromInt(10)))
}
