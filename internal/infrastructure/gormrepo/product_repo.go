package gormrepo

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minimarket/internal/domain/catalog"
	"gorm.io/gorm"
)

type ProductRepo struct {
	db *DB
}

func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Get(ctx context.Context, productID string) (*catalog.Product, error) {
	var record productRecord
	err := r.db.session(ctx).Where("product_id = ?", productID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// CompareAndSwapStock performs the single guarded write every stock
// mutation goes through: the update only applies while the version token
// is unchanged, and bumps it. Zero rows affected means either a stale
// token or a vanished product; the two are told apart with a follow-up
// read.
func (r *ProductRepo) CompareAndSwapStock(ctx context.Context, productID string, expectedVersion int64, newStock int) error {
	if newStock < 0 {
		return catalog.ErrInsufficientStock
	}

	res := r.db.session(ctx).Model(&productRecord{}).
		Where("product_id = ? AND version = ?", productID, expectedVersion).
		Updates(map[string]any{
			"stock":   newStock,
			"version": expectedVersion + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.session(ctx).Model(&productRecord{}).
			Where("product_id = ?", productID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return catalog.ErrNotFound
		}
		return catalog.ErrVersionConflict
	}
	return nil
}

// Create inserts a product. Catalog management is owned elsewhere; this
// exists for seeding and tests.
func (r *ProductRepo) Create(ctx context.Context, p *catalog.Product) error {
	record := &productRecord{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Stock:     p.Stock,
		Version:   p.Version,
		Active:    p.Active,
		Approved:  p.Approved,
	}
	return r.db.session(ctx).Create(record).Error
}
