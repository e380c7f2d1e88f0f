package payment

import (
	"context"
	"errors"
)

var ErrGatewayUnavailable = errors.New("payment: gateway unavailable")

// Session is a hosted checkout session created at the gateway.
type Session struct {
	ID  string
	URL string
}

// SessionRequest describes a checkout session. Metadata is echoed back
// verbatim on webhook events; it is the only way an inbound event can be
// mapped to an order.
type SessionRequest struct {
	AmountMinor int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
}
