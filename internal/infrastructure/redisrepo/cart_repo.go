package redisrepo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Zhima-Mochi/minimarket/internal/domain/cart"
	"github.com/redis/go-redis/v9"
)

// incrementScript adds a delta to one line of the cart hash and deletes
// the field when the quantity drops to zero or below. Running it as a
// script keeps the read-modify-write atomic under concurrent requests.
var incrementScript = redis.NewScript(`
local qty = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if qty <= 0 then
	redis.call('HDEL', KEYS[1], ARGV[1])
	return 0
end
return qty
`)

type CartRepo struct {
	client *redis.Client
}

func NewCartRepo(client *redis.Client) *CartRepo {
	return &CartRepo{client: client}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s:items", userID)
}

func (r *CartRepo) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	fields, err := r.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisrepo: get cart for %s: %w", userID, err)
	}

	c := &cart.Cart{UserID: userID}
	for productID, raw := range fields {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty <= 0 {
			continue
		}
		c.Items = append(c.Items, cart.Item{ProductID: productID, Quantity: qty})
	}
	return c, nil
}

func (r *CartRepo) IncrementItem(ctx context.Context, userID, productID string, delta int) (int, error) {
	qty, err := incrementScript.Run(ctx, r.client, []string{cartKey(userID)}, productID, delta).Int()
	if err != nil {
		return 0, fmt.Errorf("redisrepo: increment %s for %s: %w", productID, userID, err)
	}
	return qty, nil
}

func (r *CartRepo) SetItem(ctx context.Context, userID, productID string, quantity int) error {
	if quantity <= 0 {
		return r.RemoveItem(ctx, userID, productID)
	}
	if err := r.client.HSet(ctx, cartKey(userID), productID, quantity).Err(); err != nil {
		return fmt.Errorf("redisrepo: set %s for %s: %w", productID, userID, err)
	}
	return nil
}

func (r *CartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	if err := r.client.HDel(ctx, cartKey(userID), productID).Err(); err != nil {
		return fmt.Errorf("redisrepo: remove %s for %s: %w", productID, userID, err)
	}
	return nil
}

func (r *CartRepo) Clear(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("redisrepo: clear cart for %s: %w", userID, err)
	}
	return nil
}
