package service

import (
	"context"
	"fmt"

	"inventario/internal/repository"

	"golang.org/x/sync/errgroup"
)

// Stats are the totals shown on the admin dashboard
type Stats struct {
	Products  int `json:"productos"`
	Users     int `json:"usuarios"`
	Purchases int `json:"compras"`
}

// StatsService aggregates catalog totals
type StatsService interface {
	Totals(ctx context.Context) (*Stats, error)
}

type statsService struct {
	productRepo  repository.ProductRepository
	userRepo     repository.UserRepository
	purchaseRepo repository.PurchaseRepository
}

// NewStatsService creates a new instance of StatsService
func NewStatsService(
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	purchaseRepo repository.PurchaseRepository,
) StatsService {
	return &statsService{
		productRepo:  productRepo,
		userRepo:     userRepo,
		purchaseRepo: purchaseRepo,
	}
}

func (s *statsService) Totals(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		if stats.Products, err = s.productRepo.Count(ctx); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if stats.Users, err = s.userRepo.Count(ctx); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if stats.Purchases, err = s.purchaseRepo.Count(ctx); err != nil {
			return fmt.Errorf("failed to count purchases: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
