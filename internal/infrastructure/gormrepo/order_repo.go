package gormrepo

import (
	"context"
	"errors"

	domain "github.com/Zhima-Mochi/minimarket/internal/domain/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct {
	db *DB
}

func NewOrderRepo(db *DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Insert persists the order and its items as one unit.
func (r *OrderRepo) Insert(ctx context.Context, order *domain.Order) error {
	return r.db.session(ctx).Create(orderToRecord(order)).Error
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var record orderRecord
	err := r.db.session(ctx).Preload("Items").Where("order_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// Update writes the mutable order columns. The item set is immutable after
// creation, so associations are deliberately skipped.
func (r *OrderRepo) Update(ctx context.Context, order *domain.Order) error {
	record := orderToRecord(order)
	res := r.db.session(ctx).Model(&orderRecord{}).
		Omit(clause.Associations).
		Where("order_id = ?", record.OrderID).
		Updates(map[string]any{
			"status":          record.Status,
			"payment_status":  record.PaymentStatus,
			"tracking_number": record.TrackingNumber,
			"updated_at":      record.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
