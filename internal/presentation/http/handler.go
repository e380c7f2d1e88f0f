package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	appOrder "github.com/Zhima-Mochi/minimarket/internal/application/order"
	domcart "github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"github.com/Zhima-Mochi/minimarket/internal/domain/coupon"
	domainOrder "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	domainPayment "github.com/Zhima-Mochi/minimarket/internal/domain/payment"
	"github.com/Zhima-Mochi/minimarket/internal/infrastructure/gateway"
	"go.uber.org/zap"
)

const (
	headerRequestID = "X-Request-ID"
	headerUserID    = "X-User-ID"
	headerSignature = "X-Gateway-Signature"

	maxWebhookBody = 1 << 20
)

type CartService interface {
	Get(ctx context.Context, userID string) (*domcart.Cart, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (*domcart.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID string, qty int) (*domcart.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domcart.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type OrderService interface {
	CreateOrder(ctx context.Context, in appOrder.CreateOrderInput) (*domainOrder.Order, error)
	CancelOrder(ctx context.Context, orderID, requesterID string) (*domainOrder.Order, error)
	UpdateStatus(ctx context.Context, orderID string, next domainOrder.Status) (*domainOrder.Order, error)
	AddTracking(ctx context.Context, orderID, trackingNumber string) (*domainOrder.Order, error)
	Get(ctx context.Context, orderID, requesterID string) (*domainOrder.Order, error)
}

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, orderID, requesterID string) (*domainPayment.Session, error)
}

type WebhookService interface {
	HandleEvent(ctx context.Context, evt domainPayment.Event) error
}

type Handler struct {
	carts         CartService
	orders        OrderService
	checkout      CheckoutService
	webhooks      WebhookService
	webhookSecret string
	log           *zap.Logger
	metrics       *Metrics
}

func NewHandler(carts CartService, orders OrderService, checkout CheckoutService, webhooks WebhookService, webhookSecret string, log *zap.Logger, metrics *Metrics) *Handler {
	return &Handler{
		carts:         carts,
		orders:        orders,
		checkout:      checkout,
		webhooks:      webhooks,
		webhookSecret: webhookSecret,
		log:           log.With(zap.String("component", "http_server")),
		metrics:       metrics,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.handle(mux, "GET /health", h.handleHealth)

	h.handle(mux, "GET /cart", h.handleGetCart)
	h.handle(mux, "POST /cart/items", h.handleAddCartItem)
	h.handle(mux, "PUT /cart/items", h.handleUpdateCartItem)
	h.handle(mux, "DELETE /cart/items/{productID}", h.handleRemoveCartItem)
	h.handle(mux, "DELETE /cart", h.handleClearCart)

	h.handle(mux, "POST /orders", h.handleCreateOrder)
	h.handle(mux, "GET /orders/{id}", h.handleGetOrder)
	h.handle(mux, "POST /orders/{id}/cancel", h.handleCancelOrder)
	h.handle(mux, "POST /orders/{id}/status", h.handleUpdateOrderStatus)
	h.handle(mux, "POST /orders/{id}/tracking", h.handleAddTracking)
	h.handle(mux, "POST /orders/{id}/checkout-session", h.handleCreateCheckoutSession)

	h.handle(mux, "POST /webhooks/payment", h.handlePaymentWebhook)

	return mux
}

// handle wires one route with the middleware chain:
// Trace -> Request logger -> Metrics -> Access log -> Handler.
func (h *Handler) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := contextWithRoute(r.Context(), pattern)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			h.withRequestLogger(
				h.withHTTPMetrics(
					h.withAccessLog(handler),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// --- cart ---

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	c, err := h.carts.Get(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.carts.UpdateQuantity(r.Context(), userID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	c, err := h.carts.RemoveItem(r.Context(), userID, r.PathValue("productID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	if err := h.carts.Clear(r.Context(), userID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- orders ---

type createOrderRequest struct {
	Items           []cartItemRequest   `json:"items"`
	ShippingAddress domainOrder.Address `json:"shipping_address"`
	BillingAddress  domainOrder.Address `json:"billing_address"`
	PaymentMethod   string              `json:"payment_method"`
	CouponCode      string              `json:"coupon_code"`
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	items := make([]appOrder.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, appOrder.ItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	entity, err := h.orders.CreateOrder(r.Context(), appOrder.CreateOrderInput{
		UserID:          userID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(entity))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	entity, err := h.orders.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	entity, err := h.orders.CancelOrder(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entity, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), domainOrder.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

type addTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *Handler) handleAddTracking(w http.ResponseWriter, r *http.Request) {
	var req addTrackingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entity, err := h.orders.AddTracking(r.Context(), r.PathValue("id"), req.TrackingNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(entity))
}

// --- checkout ---

type checkoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (h *Handler) handleCreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	session, err := h.checkout.CreateCheckoutSession(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	})
}

// --- webhook ---

// handlePaymentWebhook verifies the gateway signature over the raw body,
// decodes the event and hands it to the reconciler. Only signature and
// parse failures are rejected; everything downstream is acknowledged so
// the gateway does not retry business-level failures.
func (h *Handler) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.countWebhook("unknown", "read_failed")
		writeError(w, http.StatusBadRequest, errors.New("unreadable body"))
		return
	}

	if err := gateway.VerifySignature(body, r.Header.Get(headerSignature), h.webhookSecret); err != nil {
		h.countWebhook("unknown", "bad_signature")
		writeError(w, http.StatusBadRequest, errors.New("invalid signature"))
		return
	}

	evt, err := gateway.ParseEvent(body)
	if err != nil {
		h.countWebhook("unknown", "parse_failed")
		writeError(w, http.StatusBadRequest, errors.New("malformed payload"))
		return
	}

	_ = h.webhooks.HandleEvent(r.Context(), evt)
	h.countWebhook(string(evt.Kind()), "acknowledged")
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) countWebhook(kind, outcome string) {
	if h.metrics != nil && h.metrics.WebhookEvents != nil {
		h.metrics.WebhookEvents.WithLabelValues(kind, outcome).Inc()
	}
}

// --- shared plumbing ---

func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, errors.New("missing "+headerUserID+" header"))
		return "", false
	}
	return userID, true
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainOrder.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, catalog.ErrVersionConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domainPayment.ErrSessionCreateFailed):
		writeError(w, http.StatusBadGateway, err)
	case errors.Is(err, domainOrder.ErrNoItems),
		errors.Is(err, domainOrder.ErrInvalidQuantity),
		errors.Is(err, domainOrder.ErrInvalidTransition),
		errors.Is(err, domainOrder.ErrNotCancellable),
		errors.Is(err, domainOrder.ErrAlreadyPaid),
		errors.Is(err, domainOrder.ErrNotAwaitingPayment),
		errors.Is(err, domcart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrUnavailable),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, coupon.ErrInvalid),
		errors.Is(err, coupon.ErrUsageLimitReached):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
