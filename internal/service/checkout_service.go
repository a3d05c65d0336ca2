package service

import (
	"context"
	"errors"
	"fmt"

	"inventario/internal/domain"
	"inventario/internal/metrics"
	"inventario/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrEmptyCart       = errors.New("the cart is empty")
)

// CheckoutService is the only path that removes stock from the catalog
type CheckoutService interface {
	PurchaseProduct(ctx context.Context, principal *domain.Principal, productID int64, quantity int) (*domain.Purchase, error)
	// CheckoutCart validates every line against live stock before writing
	// anything, then records all lines in one transaction.
	CheckoutCart(ctx context.Context, principal *domain.Principal, cart *domain.Cart) ([]*domain.Purchase, error)
	History(ctx context.Context, principal *domain.Principal) ([]*domain.PurchaseHistoryEntry, error)
}

type checkoutService struct {
	productRepo  repository.ProductRepository
	purchaseRepo repository.PurchaseRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService. m may be nil.
func NewCheckoutService(
	productRepo repository.ProductRepository,
	purchaseRepo repository.PurchaseRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		metrics:      m,
		logger:       logger,
	}
}

func (s *checkoutService) PurchaseProduct(ctx context.Context, principal *domain.Principal, productID int64, quantity int) (*domain.Purchase, error) {
	if err := domain.Authorize(principal, domain.ActionPurchase); err != nil {
		s.observe(metrics.KindSingle, err, 0)
		return nil, err
	}
	if quantity < 1 {
		s.observe(metrics.KindSingle, ErrInvalidQuantity, 0)
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		s.observe(metrics.KindSingle, err, 0)
		return nil, err
	}
	if product.Quantity < quantity {
		err := &domain.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Quantity,
			Requested: quantity,
		}
		s.observe(metrics.KindSingle, err, 0)
		return nil, err
	}

	purchases, err := s.purchaseRepo.Create(ctx, principal.UserID, []domain.PurchaseLine{
		{ProductID: product.ID, Name: product.Name, Quantity: quantity},
	})
	if err != nil {
		s.observe(metrics.KindSingle, err, 0)
		return nil, s.commitError(err, product.ID, product.Name)
	}

	s.observe(metrics.KindSingle, nil, quantity)
	s.logger.Info("Product purchased",
		zap.Int64("user_id", principal.UserID),
		zap.Int64("product_id", product.ID),
		zap.Int("quantity", quantity),
	)
	return purchases[0], nil
}

func (s *checkoutService) CheckoutCart(ctx context.Context, principal *domain.Principal, cart *domain.Cart) ([]*domain.Purchase, error) {
	if err := domain.Authorize(principal, domain.ActionPurchase); err != nil {
		s.observe(metrics.KindCart, err, 0)
		return nil, err
	}
	if cart.IsEmpty() {
		s.observe(metrics.KindCart, ErrEmptyCart, 0)
		return nil, ErrEmptyCart
	}

	lines, err := s.validateCart(ctx, cart)
	if err != nil {
		s.observe(metrics.KindCart, err, 0)
		return nil, err
	}

	purchases, err := s.purchaseRepo.Create(ctx, principal.UserID, lines)
	if err != nil {
		s.observe(metrics.KindCart, err, 0)
		if errors.Is(err, repository.ErrProductNotFound) {
			// a product was deleted between the passes; re-validate to name it
			if _, verr := s.validateCart(ctx, cart); verr != nil {
				return nil, verr
			}
		}
		return nil, s.commitError(err, 0, "")
	}

	units := 0
	for _, line := range lines {
		units += line.Quantity
	}
	s.observe(metrics.KindCart, nil, units)
	s.logger.Info("Cart checked out",
		zap.Int64("user_id", principal.UserID),
		zap.Int("lines", len(lines)),
		zap.Int("units", units),
	)
	return purchases, nil
}

// validateCart is the read-only pass. Lines are checked in product id order
// and the first failing line is reported.
func (s *checkoutService) validateCart(ctx context.Context, cart *domain.Cart) ([]domain.PurchaseLine, error) {
	sorted := cart.SortedLines()
	lines := make([]domain.PurchaseLine, 0, len(sorted))

	for _, line := range sorted {
		if line.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.productRepo.FindByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, &domain.ProductUnavailableError{ProductID: line.ProductID, Name: line.Name}
			}
			return nil, fmt.Errorf("failed to validate cart: %w", err)
		}
		if product.Quantity < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Name:      line.Name,
				Available: product.Quantity,
				Requested: line.Quantity,
			}
		}

		lines = append(lines, domain.PurchaseLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
		})
	}

	return lines, nil
}

// commitError maps failures of the transactional write. Stock errors pass
// through so the caller can report the live count.
func (s *checkoutService) commitError(err error, productID int64, name string) error {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return err
	}
	if errors.Is(err, repository.ErrProductNotFound) {
		return &domain.ProductUnavailableError{ProductID: productID, Name: name}
	}
	s.logger.Error("Checkout transaction failed", zap.Error(err))
	return fmt.Errorf("failed to complete purchase: %w", err)
}

func (s *checkoutService) History(ctx context.Context, principal *domain.Principal) ([]*domain.PurchaseHistoryEntry, error) {
	if err := domain.Authorize(principal, domain.ActionViewHistory); err != nil {
		return nil, err
	}
	entries, err := s.purchaseRepo.ListByUser(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase history: %w", err)
	}
	return entries, nil
}

func (s *checkoutService) observe(kind string, err error, units int) {
	var stockErr *domain.InsufficientStockError
	switch {
	case err == nil:
		s.metrics.ObserveCheckout(kind, metrics.ResultSuccess, units)
	case errors.As(err, &stockErr):
		s.metrics.ObserveCheckout(kind, metrics.ResultInsufficient, 0)
	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotAuthenticated),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, repository.ErrProductNotFound):
		s.metrics.ObserveCheckout(kind, metrics.ResultRejected, 0)
	default:
		s.metrics.ObserveCheckout(kind, metrics.ResultError, 0)
	}
}
