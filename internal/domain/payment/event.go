package payment

type EventKind string

const (
	EventCheckoutCompleted EventKind = "checkout_completed"
	EventPaymentFailed     EventKind = "payment_failed"
	EventChargeRefunded    EventKind = "charge_refunded"
	EventUnhandled         EventKind = "unhandled"
)

// Event is one decoded gateway webhook event. The gateway delivers events
// at least once and possibly out of order; every variant carries the order
// id recovered from session metadata (empty if the gateway sent none).
type Event interface {
	Kind() EventKind
	Order() string
}

// CheckoutCompleted signals a paid checkout session.
type CheckoutCompleted struct {
	OrderID       string
	CustomerID    string
	AmountMinor   int64
	Currency      string
	TransactionID string
	RawPayload    []byte
}

func (CheckoutCompleted) Kind() EventKind { return EventCheckoutCompleted }
func (e CheckoutCompleted) Order() string { return e.OrderID }

// PaymentFailed signals a declined or errored payment attempt.
type PaymentFailed struct {
	OrderID       string
	CustomerID    string
	Reason        string
	TransactionID string
	RawPayload    []byte
}

func (PaymentFailed) Kind() EventKind { return EventPaymentFailed }
func (e PaymentFailed) Order() string { return e.OrderID }

// ChargeRefunded signals a refund settled at the gateway. It is recorded
// for audit; deeper refund propagation is out of scope.
type ChargeRefunded struct {
	OrderID       string
	AmountMinor   int64
	Currency      string
	TransactionID string
	RawPayload    []byte
}

func (ChargeRefunded) Kind() EventKind { return EventChargeRefunded }
func (e ChargeRefunded) Order() string { return e.OrderID }

// Unhandled is any event type outside the closed set above. It is
// acknowledged without processing.
type Unhandled struct {
	Type string
}

func (Unhandled) Kind() EventKind { return EventUnhandled }
func (Unhandled) Order() string   { return "" }
