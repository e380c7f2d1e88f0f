package gormrepo

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minimarket/internal/domain/payment"
)

type PaymentRepo struct {
	db *DB
}

func NewPaymentRepo(db *DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Append inserts one payment attempt row. Rows are never updated.
func (r *PaymentRepo) Append(ctx context.Context, p *payment.Payment) error {
	record := paymentToRecord(p)
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return r.db.session(ctx).Create(record).Error
}

func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID string) ([]payment.Payment, error) {
	var records []paymentRecord
	err := r.db.session(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	payments := make([]payment.Payment, 0, len(records))
	for i := range records {
		payments = append(payments, records[i].toDomain())
	}
	return payments, nil
}
