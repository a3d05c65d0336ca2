package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventario/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CartRepository stores session carts keyed by session id
type CartRepository interface {
	// Get returns the stored cart, or an empty cart when none exists.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisCartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a Redis-backed CartRepository. Carts expire
// together with the session that owns them.
func NewCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &redisCartRepository{client: client, ttl: ttl}
}

func (r *redisCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	payload, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(), nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart := domain.NewCart()
	if err := json.Unmarshal(payload, cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = make(map[int64]*domain.CartLine)
	}

	return cart, nil
}

func (r *redisCartRepository) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if cart.IsEmpty() {
		return r.Delete(ctx, sessionID)
	}

	payload, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := r.client.Set(ctx, cartKey(sessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (r *redisCartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}
