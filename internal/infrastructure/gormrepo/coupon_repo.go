package gormrepo

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minimarket/internal/domain/coupon"
	"gorm.io/gorm"
)

type CouponRepo struct {
	db *DB
}

func NewCouponRepo(db *DB) *CouponRepo {
	return &CouponRepo{db: db}
}

func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var record couponRecord
	err := r.db.session(ctx).Where("code = ?", code).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, coupon.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// IncrementUsage bumps times_used under the usage-limit guard so two
// concurrent orders cannot overspend a nearly exhausted coupon.
func (r *CouponRepo) IncrementUsage(ctx context.Context, code string) error {
	res := r.db.session(ctx).Model(&couponRecord{}).
		Where("code = ? AND (usage_limit IS NULL OR times_used < usage_limit)", code).
		Update("times_used", gorm.Expr("times_used + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.session(ctx).Model(&couponRecord{}).
			Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return coupon.ErrNotFound
		}
		return coupon.ErrUsageLimitReached
	}
	return nil
}

// Create inserts a coupon. Coupon administration is owned elsewhere; this
// exists for seeding and tests.
func (r *CouponRepo) Create(ctx context.Context, c *coupon.Coupon) error {
	record := &couponRecord{
		Code:          c.Code,
		DiscountType:  string(c.Type),
		DiscountValue: c.Value,
		ExpiresAt:     c.ExpiresAt,
		MinPurchase:   c.MinPurchase,
		Active:        c.Active,
		UsageLimit:    c.UsageLimit,
		TimesUsed:     c.TimesUsed,
	}
	return r.db.session(ctx).Create(record).Error
}
