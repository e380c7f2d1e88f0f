package httppresentation

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appOrder "github.com/Zhima-Mochi/minimarket/internal/application/order"
	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	domainOrder "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	domainPayment "github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "whsec_test"

type stubCarts struct {
	cart *domcart.Cart
	err  error
}

func (s *stubCarts) Get(_ context.Context, userID string) (*domcart.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.cart != nil {
		return s.cart, nil
	}
	return &domcart.Cart{UserID: userID}, nil
}

func (s *stubCarts) AddItem(ctx context.Context, userID, _ string, _ int) (*domcart.Cart, error) {
	return s.Get(ctx, userID)
}

func (s *stubCarts) UpdateQuantity(ctx context.Context, userID, _ string, _ int) (*domcart.Cart, error) {
	return s.Get(ctx, userID)
}

func (s *stubCarts) RemoveItem(ctx context.Context, userID, _ string) (*domcart.Cart, error) {
	return s.Get(ctx, userID)
}

func (s *stubCarts) Clear(_ context.Context, _ string) error { return s.err }

type stubOrders struct {
	order *domainOrder.Order
	err   error
}

func (s *stubOrders) CreateOrder(_ context.Context, _ appOrder.CreateOrderInput) (*domainOrder.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) CancelOrder(_ context.Context, _, _ string) (*domainOrder.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) UpdateStatus(_ context.Context, _ string, _ domainOrder.Status) (*domainOrder.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) AddTracking(_ context.Context, _, _ string) (*domainOrder.Order, error) {
	return s.order, s.err
}

func (s *stubOrders) Get(_ context.Context, _, _ string) (*domainOrder.Order, error) {
	return s.order, s.err
}

type stubCheckout struct {
	session *domainPayment.Session
	err     error
}

func (s *stubCheckout) CreateCheckoutSession(_ context.Context, _, _ string) (*domainPayment.Session, error) {
	return s.session, s.err
}

type stubWebhooks struct {
	events []domainPayment.Event
}

func (s *stubWebhooks) HandleEvent(_ context.Context, evt domainPayment.Event) error {
	s.events = append(s.events, evt)
	return nil
}

func sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func newTestHandler(orders *stubOrders, checkout *stubCheckout, webhooks *stubWebhooks) http.Handler {
	if orders == nil {
		orders = &stubOrders{}
	}
	if checkout == nil {
		checkout = &stubCheckout{}
	}
	if webhooks == nil {
		webhooks = &stubWebhooks{}
	}
	h := NewHandler(&stubCarts{}, orders, checkout, webhooks, testSecret, zap.NewNop(), nil)
	return h.Router()
}

func TestWebhookAcceptsSignedPayload(t *testing.T) {
	webhooks := &stubWebhooks{}
	router := newTestHandler(nil, nil, webhooks)

	payload := []byte(`{
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "amount_total": 100, "currency": "usd",
			"metadata": {"order_id": "o1", "customer_id": "u1"}}}
	}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set(headerSignature, sign(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, webhooks.events, 1)
	assert.Equal(t, "o1", webhooks.events[0].Order())
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	webhooks := &stubWebhooks{}
	router := newTestHandler(nil, nil, webhooks)

	payload := []byte(`{"type": "checkout.session.completed", "data": {"object": {}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set(headerSignature, "not-a-signature")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, webhooks.events, "unverified events never reach the reconciler")
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	webhooks := &stubWebhooks{}
	router := newTestHandler(nil, nil, webhooks)

	payload := []byte(`{broken`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set(headerSignature, sign(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, webhooks.events)
}

func TestWebhookAcknowledgesUnknownEventTypes(t *testing.T) {
	webhooks := &stubWebhooks{}
	router := newTestHandler(nil, nil, webhooks)

	payload := []byte(`{"type": "invoice.created", "data": {"object": {}}}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", bytes.NewReader(payload))
	req.Header.Set(headerSignature, sign(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartRequiresUserHeader(t *testing.T) {
	router := newTestHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCart(t *testing.T) {
	router := newTestHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(headerUserID, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":"u1"`)
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domainOrder.ErrNotFound, http.StatusNotFound},
		{"forbidden", domainOrder.ErrForbidden, http.StatusForbidden},
		{"not cancellable", domainOrder.ErrNotCancellable, http.StatusBadRequest},
		{"session create failed", domainPayment.ErrSessionCreateFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestHandler(&stubOrders{err: tt.err}, &stubCheckout{err: tt.err}, nil)

			req := httptest.NewRequest(http.MethodPost, "/orders/o1/cancel", nil)
			req.Header.Set(headerUserID, "u1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCreateOrderRejectsBadJSON(t *testing.T) {
	router := newTestHandler(nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"items": [`))
	req.Header.Set(headerUserID, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCheckoutSession(t *testing.T) {
	checkout := &stubCheckout{session: &domainPayment.Session{ID: "sess_1", URL: "https://pay.example.com/s"}}
	router := newTestHandler(nil, checkout, nil)

	req := httptest.NewRequest(http.MethodPost, "/orders/o1/checkout-session", nil)
	req.Header.Set(headerUserID, "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"session_id":"sess_1"`)
}
