package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// PricePlaces is the number of decimal places stored for prices
const PricePlaces = 2

// MaxQuantity and MaxPrice are the largest values the productos columns
// (INTEGER, NUMERIC(10,2)) can hold
const MaxQuantity = math.MaxInt32

var MaxPrice = decimal.RequireFromString("99999999.99")

var ErrInvalidProduct = errors.New("invalid product: name is required and quantity and price must be within range")

// ProductInput carries the editable fields of a product
type ProductInput struct {
	Name     string
	Quantity int
	Price    decimal.Decimal
}

// ProductService defines catalog operations on products
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context, nameFilter string) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	product, err := buildProduct(in)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, in ProductInput) (*domain.Product, error) {
	product, err := buildProduct(in)
	if err != nil {
		return nil, err
	}
	product.ID = id

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	return s.productRepo.Delete(ctx, id)
}

func (s *productService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *productService) List(ctx context.Context, nameFilter string) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// cleanName trims and composes a display name so "café" typed two ways
// maps to the same unique key
func cleanName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func buildProduct(in ProductInput) (*domain.Product, error) {
	product := &domain.Product{
		Name:     cleanName(in.Name),
		Quantity: in.Quantity,
		Price:    in.Price.Round(PricePlaces),
	}
	if product.Name == "" ||
		product.Quantity < 0 || product.Quantity > MaxQuantity ||
		product.Price.IsNegative() || product.Price.GreaterThan(MaxPrice) {
		return nil, ErrInvalidProduct
	}
	return product, nil
}
