package order

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minimarket/internal/application/stock"
	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"github.com/Zhima-Mochi/minimarket/internal/domain/coupon"
	domain "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"github.com/Zhima-Mochi/minimarket/internal/pkg/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TxManager runs fn inside one database transaction. Any error returned by
// fn rolls back every write made within it, including stock reservations.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// IDGenerator yields unique order identifiers.
type IDGenerator interface {
	NewID() string
}

// Service is the order orchestrator: it owns the order-creation transaction
// and the cancellation path, and is the only mutator of coupon usage
// counters.
type Service struct {
	tx          TxManager
	orders      domain.Repository
	products    catalog.Repository
	coupons     coupon.Repository
	ledger      *stock.Ledger
	idGenerator IDGenerator
	shippingFee decimal.Decimal
}

func NewService(tx TxManager, orders domain.Repository, products catalog.Repository, coupons coupon.Repository, ledger *stock.Ledger, idGen IDGenerator, shippingFee decimal.Decimal) *Service {
	return &Service{
		tx:          tx,
		orders:      orders,
		products:    products,
		coupons:     coupons,
		ledger:      ledger,
		idGenerator: idGen,
		shippingFee: shippingFee,
	}
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID          string
	Items           []ItemInput
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	PaymentMethod   string
	CouponCode      string
}

// CreateOrder validates every requested item, reserves stock, snapshots
// prices, applies an optional coupon and persists the order, all within a
// single transaction. Any failure at any step rolls back every reservation
// made so far; a partially applied order is never visible.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	if in.UserID == "" {
		return nil, fmt.Errorf("order: user id is required")
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrNoItems
	}
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
	}

	var created *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		total := decimal.Zero
		items := make([]domain.Item, 0, len(in.Items))

		// Reservations are applied in request order; competing orders for
		// the same product are serialized by the ledger's compare-and-swap.
		for _, item := range in.Items {
			product, err := s.products.Get(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if !product.Purchasable() {
				return fmt.Errorf("%w: product %s", catalog.ErrUnavailable, item.ProductID)
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: product %s has %d, requested %d",
					catalog.ErrInsufficientStock, item.ProductID, product.Stock, item.Quantity)
			}

			snapshot, err := s.ledger.Reserve(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}

			itemTotal := snapshot.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			items = append(items, domain.Item{
				ProductID:       snapshot.ID,
				ProductName:     snapshot.Name,
				Quantity:        item.Quantity,
				PriceAtPurchase: snapshot.Price,
				ItemTotal:       itemTotal,
			})
			total = total.Add(itemTotal)
		}

		discount := decimal.Zero
		if in.CouponCode != "" {
			c, err := s.coupons.GetByCode(ctx, in.CouponCode)
			if err != nil {
				return err
			}
			eval := coupon.Evaluate(c, total, time.Now().UTC())
			if !eval.Valid {
				return fmt.Errorf("%w: %s", coupon.ErrInvalid, eval.Reason)
			}
			discount = eval.Discount
			// spent only once the order in this same transaction commits
			if err := s.coupons.IncrementUsage(ctx, c.Code); err != nil {
				return err
			}
		}

		entity, err := domain.New(s.idGenerator.NewID(), in.UserID, items,
			total, discount, s.shippingFee,
			in.ShippingAddress, in.BillingAddress, in.PaymentMethod, in.CouponCode)
		if err != nil {
			return err
		}
		if err := s.orders.Insert(ctx, entity); err != nil {
			return fmt.Errorf("order: insert: %w", err)
		}
		created = entity
		return nil
	})
	if err != nil {
		logger.Warn("create_order_failed",
			zap.String("user_id", in.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Info("order_created",
		zap.String("order_id", created.ID),
		zap.String("user_id", created.UserID),
		zap.String("final_amount", created.FinalAmount.String()),
	)
	return created, nil
}

// CancelOrder cancels a customer's own order while it is still
// cancellable, marks the payment refunded and restores the reserved stock.
// The status guard rejects a second cancellation, so restitution runs at
// most once per order.
func (s *Service) CancelOrder(ctx context.Context, orderID, requesterID string) (*domain.Order, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	var cancelled *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entity, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if entity.UserID != requesterID {
			return domain.ErrForbidden
		}
		if err := entity.Cancel(domain.StatusCancelledByCustomer); err != nil {
			return fmt.Errorf("%w: current status %s", err, entity.Status)
		}

		for _, item := range entity.Items {
			if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orders.Update(ctx, entity); err != nil {
			return fmt.Errorf("order: update: %w", err)
		}
		cancelled = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("order_cancelled",
		zap.String("order_id", cancelled.ID),
		zap.String("user_id", cancelled.UserID),
	)
	return cancelled, nil
}

// UpdateStatus is the seller/admin status path. A transition into a
// CANCELLED_* status triggers stock restitution exactly once, guarded by
// the payment status and written atomically with it.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next domain.Status) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, next)
	}

	var updated *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entity, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		restore := next.Cancelled() && entity.PaymentStatus != domain.PaymentRefunded
		if err := entity.Transition(next); err != nil {
			return fmt.Errorf("%w: %s -> %s", err, entity.Status, next)
		}
		if restore {
			entity.PaymentStatus = domain.PaymentRefunded
			for _, item := range entity.Items {
				if err := s.ledger.Restore(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		if err := s.orders.Update(ctx, entity); err != nil {
			return fmt.Errorf("order: update: %w", err)
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddTracking attaches a tracking number, advancing PROCESSING orders to
// SHIPPED.
func (s *Service) AddTracking(ctx context.Context, orderID, trackingNumber string) (*domain.Order, error) {
	if trackingNumber == "" {
		return nil, fmt.Errorf("order: tracking number is required")
	}

	var updated *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entity, err := s.orders.Get(ctx, orderID)
		if err != nil {
			return err
		}
		if err := entity.SetTracking(trackingNumber); err != nil {
			return fmt.Errorf("%w: current status %s", err, entity.Status)
		}
		if err := s.orders.Update(ctx, entity); err != nil {
			return fmt.Errorf("order: update: %w", err)
		}
		updated = entity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Get returns an order after checking the requester owns it.
func (s *Service) Get(ctx context.Context, orderID, requesterID string) (*domain.Order, error) {
	entity, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entity.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	return entity, nil
}
