package store

import (
	"context"
	"encoding/json"

	"savora_back_end/internal/database"
	"savora_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

// RedisCartReader lit l'instantané du panier depuis Redis (clé cart:<userID>,
// JSON). Le panier est un collaborateur externe: on le lit et on le vide,
// rien de plus.
type RedisCartReader struct{}

func (r *RedisCartReader) Snapshot(ctx context.Context, userID string) ([]models.CartItem, error) {
	cartData, err := database.Redis.Get(ctx, "cart:"+userID).Result()
	if err == redis.Nil {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(cartData), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

func (r *RedisCartReader) Clear(ctx context.Context, userID string) error {
	return database.Redis.Del(ctx, "cart:"+userID).Err()
}
