package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minimarket/internal/domain/payment"
)

var ErrInvalidSignature = errors.New("gateway: invalid webhook signature")

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw request
// body against the shared secret. The comparison is constant time.
func VerifySignature(payload []byte, signature, secret string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

type webhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		Object webhookObject `json:"object"`
	} `json:"data"`
}

type webhookObject struct {
	ID            string            `json:"id"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
	PaymentIntent *webhookIntent    `json:"payment_intent"`
}

type webhookIntent struct {
	ID               string            `json:"id"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// ParseEvent decodes a gateway webhook body into a typed event. Event
// types outside the handled set come back as payment.Unhandled so the
// caller can ack them without acting.
func ParseEvent(payload []byte) (payment.Event, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("gateway: parse webhook payload: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("gateway: webhook payload missing type")
	}

	obj := env.Data.Object
	orderID := obj.Metadata["order_id"]
	customerID := obj.Metadata["customer_id"]
	if orderID == "" && obj.PaymentIntent != nil {
		orderID = obj.PaymentIntent.Metadata["order_id"]
		if customerID == "" {
			customerID = obj.PaymentIntent.Metadata["customer_id"]
		}
	}

	switch env.Type {
	case "checkout.session.completed":
		txnID := obj.ID
		if obj.PaymentIntent != nil && obj.PaymentIntent.ID != "" {
			txnID = obj.PaymentIntent.ID
		}
		return payment.CheckoutCompleted{
			OrderID:       orderID,
			CustomerID:    customerID,
			AmountMinor:   obj.AmountTotal,
			Currency:      obj.Currency,
			TransactionID: txnID,
			RawPayload:    payload,
		}, nil
	case "payment_intent.payment_failed":
		reason := "payment failed"
		txnID := obj.ID
		if obj.PaymentIntent != nil {
			if obj.PaymentIntent.ID != "" {
				txnID = obj.PaymentIntent.ID
			}
			if obj.PaymentIntent.LastPaymentError != nil && obj.PaymentIntent.LastPaymentError.Message != "" {
				reason = obj.PaymentIntent.LastPaymentError.Message
			}
		}
		return payment.PaymentFailed{
			OrderID:       orderID,
			CustomerID:    customerID,
			Reason:        reason,
			TransactionID: txnID,
			RawPayload:    payload,
		}, nil
	case "charge.refunded":
		return payment.ChargeRefunded{
			OrderID:       orderID,
			AmountMinor:   obj.AmountTotal,
			Currency:      obj.Currency,
			TransactionID: obj.ID,
			RawPayload:    payload,
		}, nil
	default:
		return payment.Unhandled{Type: env.Type}, nil
	}
}
