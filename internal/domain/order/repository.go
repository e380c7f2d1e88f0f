package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	// Update persists mutable order fields (status, payment status,
	// tracking number). The item set is immutable and never rewritten.
	Update(ctx context.Context, order *Order) error
}
