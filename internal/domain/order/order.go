package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("order: not found")
	ErrForbidden          = errors.New("order: requester does not own this order")
	ErrNoItems            = errors.New("order: at least one item is required")
	ErrInvalidQuantity    = errors.New("order: quantity must be greater than zero")
	ErrInvalidTransition  = errors.New("order: invalid status transition")
	ErrNotCancellable     = errors.New("order: status does not permit cancellation")
	ErrAlreadyPaid        = errors.New("order: payment already completed")
	ErrNotAwaitingPayment = errors.New("order: not awaiting payment")
)

// Address is an opaque snapshot captured at order creation. It is never
// mutated afterwards.
type Address struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Item is a line of an order. PriceAtPurchase is a snapshot of the product
// price at order time and is never re-read from the live product; the
// snapshot survives product deletion.
type Item struct {
	ProductID       string
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
	ItemTotal       decimal.Decimal
}

// Order is created once per checkout. The item set is immutable after
// creation; only status, payment status and the tracking number change.
type Order struct {
	ID              string
	UserID          string
	Status          Status
	PaymentStatus   PaymentStatus
	TotalAmount     decimal.Decimal
	DiscountAmount  decimal.Decimal
	ShippingFee     decimal.Decimal
	FinalAmount     decimal.Decimal
	ShippingAddress Address
	BillingAddress  Address
	PaymentMethod   string
	CouponCode      string
	TrackingNumber  string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a PENDING_PAYMENT order. FinalAmount is derived as
// total - discount + shipping and is guaranteed non-negative because the
// coupon evaluator clamps the discount to the total.
func New(id, userID string, items []Item, total, discount, shippingFee decimal.Decimal, shipping, billing Address, paymentMethod, couponCode string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	final := total.Sub(discount).Add(shippingFee)
	if final.IsNegative() {
		final = decimal.Zero
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		Status:          StatusPendingPayment,
		PaymentStatus:   PaymentPending,
		TotalAmount:     total,
		DiscountAmount:  discount,
		ShippingFee:     shippingFee,
		FinalAmount:     final,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		PaymentMethod:   paymentMethod,
		CouponCode:      couponCode,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Transition moves the order to next after validating against the state
// machine.
func (o *Order) Transition(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	o.Status = next
	o.touch()
	return nil
}

// MarkPaid records a confirmed payment: PENDING_PAYMENT moves to PROCESSING
// and the payment status becomes COMPLETED.
func (o *Order) MarkPaid() error {
	if err := o.Transition(StatusProcessing); err != nil {
		return err
	}
	o.PaymentStatus = PaymentCompleted
	return nil
}

// MarkPaymentFailed records a failed payment attempt. The order stays in
// PENDING_PAYMENT so the buyer can retry.
func (o *Order) MarkPaymentFailed() error {
	if o.Status != StatusPendingPayment {
		return ErrInvalidTransition
	}
	o.PaymentStatus = PaymentFailed
	o.touch()
	return nil
}

// Cancel transitions into the given CANCELLED_* status and marks the
// payment refunded. Cancellation is only possible before shipment; a second
// cancel attempt is rejected by the status guard.
func (o *Order) Cancel(to Status) error {
	if !to.Cancelled() {
		return ErrInvalidTransition
	}
	if !o.Status.Cancellable() {
		return ErrNotCancellable
	}
	if err := o.Transition(to); err != nil {
		return err
	}
	o.PaymentStatus = PaymentRefunded
	return nil
}

// SetTracking attaches a tracking number. Allowed while PROCESSING or
// SHIPPED; attaching one to a PROCESSING order advances it to SHIPPED.
func (o *Order) SetTracking(trackingNumber string) error {
	if o.Status != StatusProcessing && o.Status != StatusShipped {
		return ErrInvalidTransition
	}
	o.TrackingNumber = trackingNumber
	if o.Status == StatusProcessing {
		return o.Transition(StatusShipped)
	}
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
