package webhook

import (
	"context"
	"fmt"

	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	"github.com/Zhima-Mochi/minimarket/internal/domain/notification"
	domain "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TxManager runs fn inside one database transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type IDGenerator interface {
	NewID() string
}

// Service reconciles gateway webhook events with internal order state.
// The gateway delivers events at least once and possibly out of order;
// idempotency guards on order state turn that into exactly-once effects.
//
// Business-effect failures are logged and swallowed so the HTTP endpoint
// still acknowledges the event: a gateway retry would only re-run the
// guarded mutation, while a non-2xx response would cause a retry storm.
// Signature and parse failures are rejected upstream, before this service
// runs.
type Service struct {
	tx          TxManager
	orders      domain.Repository
	payments    payment.Repository
	carts       domcart.Repository
	notifier    notification.Notifier
	idGenerator IDGenerator
}

func NewService(tx TxManager, orders domain.Repository, payments payment.Repository, carts domcart.Repository, notifier notification.Notifier, idGen IDGenerator) *Service {
	return &Service{
		tx:          tx,
		orders:      orders,
		payments:    payments,
		carts:       carts,
		notifier:    notifier,
		idGenerator: idGen,
	}
}

// HandleEvent dispatches one decoded gateway event. It always returns nil
// for processed-or-ignored events; the caller acknowledges regardless.
func (s *Service) HandleEvent(ctx context.Context, evt payment.Event) error {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "webhook_reconciler"),
		zap.String("event_kind", string(evt.Kind())),
	)

	if evt.Kind() != payment.EventUnhandled && evt.Order() == "" {
		logger.Warn("webhook_event_dropped_no_order_id")
		return nil
	}

	switch e := evt.(type) {
	case payment.CheckoutCompleted:
		s.handleCheckoutCompleted(ctx, logger, e)
	case payment.PaymentFailed:
		s.handlePaymentFailed(ctx, logger, e)
	case payment.ChargeRefunded:
		s.handleChargeRefunded(ctx, logger, e)
	default:
		logger.Info("webhook_event_ignored")
	}
	return nil
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, logger *zap.Logger, e payment.CheckoutCompleted) {
	logger = logger.With(zap.String("order_id", e.OrderID))

	var entity *domain.Order
	duplicate := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, e.OrderID)
		if err != nil {
			return err
		}
		// duplicate delivery: the order already moved past payment
		if o.PaymentStatus == domain.PaymentCompleted && o.Status != domain.StatusPendingPayment {
			duplicate = true
			return nil
		}
		if err := o.MarkPaid(); err != nil {
			return fmt.Errorf("mark paid: %w", err)
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.payments.Append(ctx, &payment.Payment{
			ID:            s.idGenerator.NewID(),
			OrderID:       o.ID,
			Amount:        fromMinorUnits(e.AmountMinor),
			Currency:      e.Currency,
			TransactionID: e.TransactionID,
			Status:        payment.StatusCompleted,
			RawPayload:    string(e.RawPayload),
		}); err != nil {
			return fmt.Errorf("append payment: %w", err)
		}
		entity = o
		return nil
	})
	if err != nil {
		logger.Error("checkout_completed_apply_failed", zap.Error(err))
		return
	}
	if duplicate {
		logger.Info("checkout_completed_duplicate_ignored")
		return
	}

	logger.Info("order_payment_confirmed",
		zap.String("transaction_id", e.TransactionID),
	)

	// post-payment side effects; an already-empty cart or a failed
	// notification must not fail the handler
	if err := s.carts.Clear(ctx, entity.UserID); err != nil {
		logger.Warn("cart_clear_failed", zap.Error(err))
	}
	if err := s.notifier.Notify(ctx, notification.Notification{
		UserID:  entity.UserID,
		Message: fmt.Sprintf("Your order %s is confirmed and being processed.", entity.ID),
		Link:    "/orders/" + entity.ID,
		Type:    notification.TypeOrderConfirmed,
	}); err != nil {
		logger.Warn("notify_failed", zap.Error(err))
	}
}

func (s *Service) handlePaymentFailed(ctx context.Context, logger *zap.Logger, e payment.PaymentFailed) {
	logger = logger.With(zap.String("order_id", e.OrderID))

	var entity *domain.Order
	stale := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.Get(ctx, e.OrderID)
		if err != nil {
			return err
		}
		// a failure event for an order already processing or cancelled is
		// stale and ignored
		if o.Status != domain.StatusPendingPayment {
			stale = true
			return nil
		}
		if err := o.MarkPaymentFailed(); err != nil {
			return fmt.Errorf("mark payment failed: %w", err)
		}
		if err := s.orders.Update(ctx, o); err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		if err := s.payments.Append(ctx, &payment.Payment{
			ID:            s.idGenerator.NewID(),
			OrderID:       o.ID,
			Currency:      "",
			TransactionID: e.TransactionID,
			Status:        payment.StatusFailed,
			FailureReason: e.Reason,
			RawPayload:    string(e.RawPayload),
		}); err != nil {
			return fmt.Errorf("append payment: %w", err)
		}
		entity = o
		return nil
	})
	if err != nil {
		logger.Error("payment_failed_apply_failed", zap.Error(err))
		return
	}
	if stale {
		logger.Info("payment_failed_stale_ignored")
		return
	}

	logger.Info("order_payment_failed", zap.String("reason", e.Reason))

	if err := s.notifier.Notify(ctx, notification.Notification{
		UserID:  entity.UserID,
		Message: fmt.Sprintf("Payment for order %s failed. Please try again.", entity.ID),
		Link:    "/orders/" + entity.ID,
		Type:    notification.TypePaymentFailed,
	}); err != nil {
		logger.Warn("notify_failed", zap.Error(err))
	}
}

// handleChargeRefunded records the refund for audit. Deeper refund-state
// propagation is out of scope; the event is acknowledged either way so the
// gateway does not keep retrying.
func (s *Service) handleChargeRefunded(ctx context.Context, logger *zap.Logger, e payment.ChargeRefunded) {
	logger = logger.With(zap.String("order_id", e.OrderID))

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.orders.Get(ctx, e.OrderID); err != nil {
			return err
		}
		return s.payments.Append(ctx, &payment.Payment{
			ID:            s.idGenerator.NewID(),
			OrderID:       e.OrderID,
			Amount:        fromMinorUnits(e.AmountMinor),
			Currency:      e.Currency,
			TransactionID: e.TransactionID,
			Status:        payment.StatusRefunded,
			RawPayload:    string(e.RawPayload),
		})
	})
	if err != nil {
		logger.Error("charge_refunded_record_failed", zap.Error(err))
		return
	}
	logger.Info("charge_refunded_recorded",
		zap.String("transaction_id", e.TransactionID),
	)
}

// fromMinorUnits converts the gateway's minor currency unit back to a
// major-unit amount (e.g. 1234 -> 12.34).
func fromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100))
}
