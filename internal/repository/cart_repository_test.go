package repository

import (
	"context"
	"testing"
	"time"

	"inventario/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newTestCartRepository(t *testing.T) (CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartRepository(client, time.Hour), mr
}

func TestCartRepository_MissingCartIsEmpty(t *testing.T) {
	repo, _ := newTestCartRepository(t)

	cart, err := repo.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Error("expected an empty cart")
	}
}

func TestCartRepository_SaveAndReload(t *testing.T) {
	repo, mr := newTestCartRepository(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(&domain.Product{ID: 3, Name: "Widget", Price: decimal.RequireFromString("9.99")}, 2)
	cart.Add(&domain.Product{ID: 1, Name: "Gadget", Price: decimal.RequireFromString("1.50")}, 1)

	if err := repo.Save(ctx, "sid-1", cart); err != nil {
		t.Fatalf("Failed to save cart: %v", err)
	}
	if ttl := mr.TTL("cart:sid-1"); ttl != time.Hour {
		t.Errorf("cart ttl = %v, want 1h", ttl)
	}

	loaded, err := repo.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("Failed to load cart: %v", err)
	}
	if len(loaded.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(loaded.Lines))
	}
	if !loaded.Total().Equal(decimal.RequireFromString("21.48")) {
		t.Errorf("total = %s, want 21.48", loaded.Total())
	}
	if loaded.Lines[3].Name != "Widget" || loaded.Lines[3].Quantity != 2 {
		t.Errorf("unexpected line: %+v", loaded.Lines[3])
	}
}

func TestCartRepository_EmptyCartRemovesKey(t *testing.T) {
	repo, mr := newTestCartRepository(t)
	ctx := context.Background()

	cart := domain.NewCart()
	cart.Add(&domain.Product{ID: 1, Name: "Widget", Price: decimal.NewFromInt(1)}, 1)
	if err := repo.Save(ctx, "sid-2", cart); err != nil {
		t.Fatalf("Failed to save cart: %v", err)
	}

	cart.Clear()
	if err := repo.Save(ctx, "sid-2", cart); err != nil {
		t.Fatalf("Failed to save cart: %v", err)
	}
	if mr.Exists("cart:sid-2") {
		t.Error("saving an empty cart must delete the key")
	}
}
