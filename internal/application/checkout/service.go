package checkout

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service is the thin boundary to the external payment gateway. It reads
// the order, performs one outbound network call and changes no order state;
// the gateway reports the outcome later through the webhook.
type Service struct {
	orders     domain.Repository
	gateway    payment.Gateway
	currency   string
	successURL string
	cancelURL  string
}

func NewService(orders domain.Repository, gateway payment.Gateway, currency, successURL, cancelURL string) *Service {
	return &Service{
		orders:     orders,
		gateway:    gateway,
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession creates a hosted payment session for an unpaid
// order owned by the requester. The order and customer ids travel as opaque
// metadata that the gateway echoes back on webhook events; that round-trip
// is the only way an event can be mapped back to the order.
func (s *Service) CreateCheckoutSession(ctx context.Context, orderID, requesterID string) (*payment.Session, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	entity, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	if entity.PaymentStatus == domain.PaymentCompleted {
		return nil, domain.ErrAlreadyPaid
	}
	if entity.Status != domain.StatusPendingPayment {
		return nil, fmt.Errorf("%w: current status %s", domain.ErrNotAwaitingPayment, entity.Status)
	}
	if len(entity.Items) == 0 {
		return nil, domain.ErrNoItems
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		AmountMinor: toMinorUnits(entity.FinalAmount),
		Currency:    s.currency,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
		Metadata: map[string]string{
			"order_id":    entity.ID,
			"customer_id": entity.UserID,
		},
	})
	if err != nil {
		// gateway internals are not leaked to the caller
		logger.Error("checkout_session_create_failed",
			zap.String("order_id", entity.ID),
			zap.Error(err),
		)
		return nil, payment.ErrSessionCreateFailed
	}

	logger.Info("checkout_session_created",
		zap.String("order_id", entity.ID),
		zap.String("session_id", session.ID),
	)
	return session, nil
}

// toMinorUnits converts a major-unit amount to the gateway's minor
// currency unit (e.g. 12.34 -> 1234).
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
