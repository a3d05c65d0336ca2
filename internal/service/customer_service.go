package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventario/internal/domain"
	"inventario/internal/repository"
)

var ErrInvalidCustomer = errors.New("invalid customer: name, address and email are required")

// CustomerInput carries the editable fields of a customer
type CustomerInput struct {
	Name    string
	Address string
	Email   string
}

// CustomerService defines catalog operations on customers
type CustomerService interface {
	Create(ctx context.Context, in CustomerInput) (*domain.Customer, error)
	Update(ctx context.Context, id int64, in CustomerInput) (*domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
}

// NewCustomerService creates a new instance of CustomerService
func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) Create(ctx context.Context, in CustomerInput) (*domain.Customer, error) {
	customer, err := buildCustomer(in)
	if err != nil {
		return nil, err
	}
	if err := s.customerRepo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id int64, in CustomerInput) (*domain.Customer, error) {
	customer, err := buildCustomer(in)
	if err != nil {
		return nil, err
	}
	customer.ID = id
	if err := s.customerRepo.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id int64) error {
	return s.customerRepo.Delete(ctx, id)
}

func (s *customerService) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

func (s *customerService) List(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := s.customerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

func buildCustomer(in CustomerInput) (*domain.Customer, error) {
	customer := &domain.Customer{
		Name:    cleanName(in.Name),
		Address: strings.TrimSpace(in.Address),
		Email:   normalizeEmail(in.Email),
	}
	if customer.Name == "" || customer.Address == "" || customer.Email == "" {
		return nil, ErrInvalidCustomer
	}
	return customer, nil
}
