package notification

import "context"

type Type string

const (
	TypeOrderConfirmed Type = "order_confirmed"
	TypePaymentFailed  Type = "payment_failed"
	TypeOrderCancelled Type = "order_cancelled"
)

type Notification struct {
	UserID  string
	Message string
	Link    string
	Type    Type
}

// Notifier delivers user notifications. Delivery is fire-and-forget:
// callers log failures and continue, they never abort on a notification
// error.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
