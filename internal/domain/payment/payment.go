package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrSessionCreateFailed = errors.New("payment: checkout session could not be created")
)

type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// Payment is one row of the append-only gateway attempt log. Rows are only
// ever inserted; the order's payment status is the mutable summary.
type Payment struct {
	ID            string
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	TransactionID string
	Status        Status
	FailureReason string
	RawPayload    string
	CreatedAt     time.Time
}

type Repository interface {
	Append(ctx context.Context, p *Payment) error
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
}
