package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	"github.com/Zhima-Mochi/minimarket/internal/domain/notification"
	domain "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	orders map[string]*domain.Order
}

func (f *fakeOrders) Insert(_ context.Context, o *domain.Order) error {
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (*domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Update(_ context.Context, o *domain.Order) error {
	if _, ok := f.orders[o.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

type fakePayments struct {
	rows []payment.Payment
	err  error
}

func (f *fakePayments) Append(_ context.Context, p *payment.Payment) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *p)
	return nil
}

func (f *fakePayments) ListByOrder(_ context.Context, orderID string) ([]payment.Payment, error) {
	var out []payment.Payment
	for _, p := range f.rows {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeCarts struct {
	cleared []string
	err     error
}

func (f *fakeCarts) Get(_ context.Context, userID string) (*domcart.Cart, error) {
	return &domcart.Cart{UserID: userID}, nil
}

func (f *fakeCarts) IncrementItem(_ context.Context, _, _ string, _ int) (int, error) {
	return 0, nil
}

func (f *fakeCarts) SetItem(_ context.Context, _, _ string, _ int) error { return nil }

func (f *fakeCarts) RemoveItem(_ context.Context, _, _ string) error { return nil }

func (f *fakeCarts) Clear(_ context.Context, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.cleared = append(f.cleared, userID)
	return nil
}

type fakeNotifier struct {
	sent []notification.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n notification.Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

// passTx runs fn directly; rollback fidelity is covered by the order
// service tests.
type passTx struct{}

func (passTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("pay-%d", g.n)
}

type fixture struct {
	svc      *Service
	orders   *fakeOrders
	payments *fakePayments
	carts    *fakeCarts
	notifier *fakeNotifier
}

func newFixture(orders ...*domain.Order) *fixture {
	fo := &fakeOrders{orders: make(map[string]*domain.Order)}
	for _, o := range orders {
		cp := *o
		fo.orders[o.ID] = &cp
	}
	fp := &fakePayments{}
	fc := &fakeCarts{}
	fn := &fakeNotifier{}
	return &fixture{
		svc:      NewService(passTx{}, fo, fp, fc, fn, &seqIDGen{}),
		orders:   fo,
		payments: fp,
		carts:    fc,
		notifier: fn,
	}
}

func pendingOrder(id, userID string) *domain.Order {
	o, err := domain.New(id, userID,
		[]domain.Item{{
			ProductID: "p1", ProductName: "Widget", Quantity: 1,
			PriceAtPurchase: decimal.RequireFromString("25.00"),
			ItemTotal:       decimal.RequireFromString("25.00"),
		}},
		decimal.RequireFromString("25.00"), decimal.Zero, decimal.Zero,
		domain.Address{}, domain.Address{}, "card", "")
	if err != nil {
		panic(err)
	}
	return o
}

func completedEvent(orderID string) payment.CheckoutCompleted {
	return payment.CheckoutCompleted{
		OrderID:       orderID,
		CustomerID:    "u1",
		AmountMinor:   2500,
		Currency:      "usd",
		TransactionID: "pi_123",
		RawPayload:    []byte(`{"type":"checkout.session.completed"}`),
	}
}

func TestCheckoutCompleted(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("o1")))

	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.Equal(t, domain.PaymentCompleted, o.PaymentStatus)

	require.Len(t, f.payments.rows, 1)
	row := f.payments.rows[0]
	assert.Equal(t, payment.StatusCompleted, row.Status)
	assert.Equal(t, "pi_123", row.TransactionID)
	assert.True(t, row.Amount.Equal(decimal.RequireFromString("25.00")))

	assert.Equal(t, []string{"u1"}, f.carts.cleared)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification.TypeOrderConfirmed, f.notifier.sent[0].Type)
}

func TestCheckoutCompletedDuplicateReplay(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("o1")))
	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("o1")))

	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusProcessing, o.Status, "replay does not move the order")
	assert.Len(t, f.payments.rows, 1, "one payment row despite two deliveries")
	assert.Len(t, f.notifier.sent, 1, "one notification despite two deliveries")
	assert.Len(t, f.carts.cleared, 1)
}

func TestCheckoutCompletedUnknownOrderSwallowed(t *testing.T) {
	f := newFixture()

	assert.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("ghost")),
		"business failures are acknowledged, not retried")
	assert.Empty(t, f.payments.rows)
}

func TestEventWithoutOrderIDDropped(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	assert.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("")))
	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
}

func TestPaymentFailed(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	evt := payment.PaymentFailed{
		OrderID: "o1", CustomerID: "u1",
		Reason: "card declined", TransactionID: "pi_456",
	}
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))

	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusPendingPayment, o.Status, "order stays open for retry")
	assert.Equal(t, domain.PaymentFailed, o.PaymentStatus)

	require.Len(t, f.payments.rows, 1)
	assert.Equal(t, payment.StatusFailed, f.payments.rows[0].Status)
	assert.Equal(t, "card declined", f.payments.rows[0].FailureReason)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, notification.TypePaymentFailed, f.notifier.sent[0].Type)
}

func TestPaymentFailedStaleAfterSuccess(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("o1")))

	// an out-of-order failure event must not regress the paid order
	evt := payment.PaymentFailed{OrderID: "o1", Reason: "late decline"}
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))

	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.Equal(t, domain.PaymentCompleted, o.PaymentStatus)
	assert.Len(t, f.payments.rows, 1, "no failure row for the stale event")
}

func TestChargeRefundedRecordedForAudit(t *testing.T) {
	o := pendingOrder("o1", "u1")
	require.NoError(t, o.MarkPaid())
	f := newFixture(o)

	evt := payment.ChargeRefunded{
		OrderID: "o1", AmountMinor: 2500, Currency: "usd", TransactionID: "re_1",
	}
	require.NoError(t, f.svc.HandleEvent(context.Background(), evt))

	require.Len(t, f.payments.rows, 1)
	assert.Equal(t, payment.StatusRefunded, f.payments.rows[0].Status)

	stored, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusProcessing, stored.Status, "order state untouched")
}

func TestUnhandledEventIgnored(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))

	assert.NoError(t, f.svc.HandleEvent(context.Background(), payment.Unhandled{Type: "invoice.created"}))
	assert.Empty(t, f.payments.rows)
}

func TestSideEffectFailuresSwallowed(t *testing.T) {
	f := newFixture(pendingOrder("o1", "u1"))
	f.carts.err = errors.New("redis down")
	f.notifier.err = errors.New("smtp down")

	require.NoError(t, f.svc.HandleEvent(context.Background(), completedEvent("o1")))

	o, _ := f.orders.Get(context.Background(), "o1")
	assert.Equal(t, domain.StatusProcessing, o.Status,
		"payment confirmation survives side-effect failures")
}
