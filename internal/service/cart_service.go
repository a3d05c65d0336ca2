package service

import (
	"context"
	"errors"
	"fmt"

	"inventario/internal/domain"
	"inventario/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrCartLineNotFound = errors.New("product not found in cart")

// CartView is the cart as displayed, lines ordered by product id
type CartView struct {
	Lines []*domain.CartLine `json:"lineas"`
	Total decimal.Decimal    `json:"total"`
}

// CartService mutates the cart owned by one session
type CartService interface {
	// Add checks quantity against live stock, not against the cumulative
	// quantity already in the cart. Checkout re-validates.
	Add(ctx context.Context, principal *domain.Principal, sessionID string, productID int64, quantity int) (*domain.CartLine, error)
	Remove(ctx context.Context, principal *domain.Principal, sessionID string, productID int64) error
	Clear(ctx context.Context, principal *domain.Principal, sessionID string) error
	View(ctx context.Context, principal *domain.Principal, sessionID string) (*CartView, error)
	// Checkout hands the stored cart to the checkout engine and clears it
	// only when every line was recorded.
	Checkout(ctx context.Context, principal *domain.Principal, sessionID string) ([]*domain.Purchase, error)
	// Rebind moves a cart to a renewed session id.
	Rebind(ctx context.Context, oldSessionID, newSessionID string) error
	Discard(ctx context.Context, sessionID string) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	checkout    CheckoutService
	logger      *zap.Logger
}

// NewCartService creates a new instance of CartService
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	checkout CheckoutService,
	logger *zap.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		checkout:    checkout,
		logger:      logger,
	}
}

func (s *cartService) Add(ctx context.Context, principal *domain.Principal, sessionID string, productID int64, quantity int) (*domain.CartLine, error) {
	if err := domain.Authorize(principal, domain.ActionUseCart); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Quantity < quantity {
		return nil, &domain.InsufficientStockError{
			ProductID: product.ID,
			Name:      product.Name,
			Available: product.Quantity,
			Requested: quantity,
		}
	}

	cart, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	line := cart.Add(product, quantity)
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	return line, nil
}

func (s *cartService) Remove(ctx context.Context, principal *domain.Principal, sessionID string, productID int64) error {
	if err := domain.Authorize(principal, domain.ActionUseCart); err != nil {
		return err
	}

	cart, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !cart.Remove(productID) {
		return ErrCartLineNotFound
	}
	return s.cartRepo.Save(ctx, sessionID, cart)
}

func (s *cartService) Clear(ctx context.Context, principal *domain.Principal, sessionID string) error {
	if err := domain.Authorize(principal, domain.ActionUseCart); err != nil {
		return err
	}
	return s.cartRepo.Delete(ctx, sessionID)
}

func (s *cartService) View(ctx context.Context, principal *domain.Principal, sessionID string) (*CartView, error) {
	if err := domain.Authorize(principal, domain.ActionUseCart); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	lines := cart.SortedLines()
	if lines == nil {
		lines = []*domain.CartLine{}
	}
	return &CartView{Lines: lines, Total: cart.Total()}, nil
}

func (s *cartService) Checkout(ctx context.Context, principal *domain.Principal, sessionID string) ([]*domain.Purchase, error) {
	cart, err := s.cartRepo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	purchases, err := s.checkout.CheckoutCart(ctx, principal, cart)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.Delete(ctx, sessionID); err != nil {
		// purchases are already committed
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
	return purchases, nil
}

func (s *cartService) Rebind(ctx context.Context, oldSessionID, newSessionID string) error {
	if oldSessionID == newSessionID {
		return nil
	}
	cart, err := s.cartRepo.Get(ctx, oldSessionID)
	if err != nil {
		return err
	}
	if cart.IsEmpty() {
		return nil
	}
	if err := s.cartRepo.Save(ctx, newSessionID, cart); err != nil {
		return err
	}
	if err := s.cartRepo.Delete(ctx, oldSessionID); err != nil {
		return fmt.Errorf("failed to drop previous cart: %w", err)
	}
	return nil
}

func (s *cartService) Discard(ctx context.Context, sessionID string) error {
	return s.cartRepo.Delete(ctx, sessionID)
}
