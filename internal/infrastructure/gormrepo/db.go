package gormrepo

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB wraps the gorm connection and provides the transaction scope used by
// the application services. Repositories resolve the active transaction
// from the context, so one logical operation maps to one database
// transaction.
type DB struct {
	conn *gorm.DB
}

func Open(user, password, host, port, dbname string) (*DB, error) {
	dsn := fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, password, host, port, dbname)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Migrate creates or updates the schema for all records owned by this
// module.
func (d *DB) Migrate() error {
	return d.conn.AutoMigrate(
		&productRecord{},
		&orderRecord{},
		&orderItemRecord{},
		&paymentRecord{},
		&couponRecord{},
	)
}

type txKey struct{}

// WithinTx runs fn inside a single database transaction. The transaction
// handle travels in the context; repository calls made with that context
// join the transaction. An error from fn rolls everything back.
func (d *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return d.conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// session returns the transaction bound to ctx, or a plain session when no
// transaction is open.
func (d *DB) session(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return d.conn.WithContext(ctx)
}
