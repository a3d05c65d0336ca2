package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inventario/internal/domain"
	"inventario/internal/repository"
)

// Mock repositories for testing

type mockUserRepository struct {
	users  map[string]*domain.User
	nextID int64
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Role = role
	return nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

type mockProductRepository struct {
	mu       sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		copied := *p
		m.products[p.ID] = &copied
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.Name == product.Name {
			return repository.ErrProductAlreadyExists
		}
	}
	m.nextID++
	product.ID = m.nextID
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	for _, p := range m.products {
		if p.Name == product.Name && p.ID != product.ID {
			return repository.ErrProductAlreadyExists
		}
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, nameFilter string) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	filter := strings.ToLower(strings.TrimSpace(nameFilter))
	products := []*domain.Product{}
	for _, p := range m.products {
		if filter == "" || strings.Contains(strings.ToLower(p.Name), filter) {
			copied := *p
			products = append(products, &copied)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.products), nil
}

func (m *mockProductRepository) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Quantity
}

// mockPurchaseRepository applies a checkout against the product mock with
// all-or-nothing semantics.
type mockPurchaseRepository struct {
	products  *mockProductRepository
	purchases []*domain.Purchase
	failWith  error
	nextID    int64
}

func newMockPurchaseRepository(products *mockProductRepository) *mockPurchaseRepository {
	return &mockPurchaseRepository{products: products}
}

func (m *mockPurchaseRepository) Create(ctx context.Context, userID int64, lines []domain.PurchaseLine) ([]*domain.Purchase, error) {
	m.products.mu.Lock()
	defer m.products.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	for _, line := range lines {
		p, ok := m.products.products[line.ProductID]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		if p.Quantity < line.Quantity {
			return nil, &domain.InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Available: p.Quantity,
				Requested: line.Quantity,
			}
		}
	}

	created := make([]*domain.Purchase, 0, len(lines))
	for _, line := range lines {
		m.products.products[line.ProductID].Quantity -= line.Quantity
		m.nextID++
		purchase := &domain.Purchase{
			ID:          m.nextID,
			UserID:      userID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			PurchasedAt: time.Now(),
		}
		m.purchases = append(m.purchases, purchase)
		created = append(created, purchase)
	}
	return created, nil
}

func (m *mockPurchaseRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PurchaseHistoryEntry, error) {
	entries := []*domain.PurchaseHistoryEntry{}
	for i := len(m.purchases) - 1; i >= 0; i-- {
		p := m.purchases[i]
		if p.UserID != userID {
			continue
		}
		entries = append(entries, &domain.PurchaseHistoryEntry{
			ID:          p.ID,
			ProductID:   p.ProductID,
			Quantity:    p.Quantity,
			PurchasedAt: p.PurchasedAt,
		})
	}
	return entries, nil
}

func (m *mockPurchaseRepository) Count(ctx context.Context) (int, error) {
	m.products.mu.Lock()
	defer m.products.mu.Unlock()
	return len(m.purchases), nil
}

type mockCustomerRepository struct {
	customers map[int64]*domain.Customer
	nextID    int64
}

func newMockCustomerRepository() *mockCustomerRepository {
	return &mockCustomerRepository{customers: make(map[int64]*domain.Customer)}
}

func (m *mockCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	for _, c := range m.customers {
		if c.Email == customer.Email {
			return repository.ErrCustomerAlreadyExists
		}
	}
	m.nextID++
	customer.ID = m.nextID
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	if _, ok := m.customers[customer.ID]; !ok {
		return repository.ErrCustomerNotFound
	}
	for _, c := range m.customers {
		if c.Email == customer.Email && c.ID != customer.ID {
			return repository.ErrCustomerAlreadyExists
		}
	}
	copied := *customer
	m.customers[customer.ID] = &copied
	return nil
}

func (m *mockCustomerRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.customers[id]; !ok {
		return repository.ErrCustomerNotFound
	}
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerRepository) List(ctx context.Context) ([]*domain.Customer, error) {
	customers := []*domain.Customer{}
	for _, c := range m.customers {
		customers = append(customers, c)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].Name < customers[j].Name })
	return customers, nil
}

func (m *mockCustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, repository.ErrCustomerNotFound
	}
	return c, nil
}

type mockCartRepository struct {
	carts map[string]*domain.Cart
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart := domain.NewCart()
	if stored, ok := m.carts[sessionID]; ok {
		for id, line := range stored.Lines {
			copied := *line
			cart.Lines[id] = &copied
		}
	}
	return cart, nil
}

func (m *mockCartRepository) Save(ctx context.Context, sessionID string, cart *domain.Cart) error {
	if cart.IsEmpty() {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = cart
	return nil
}

func (m *mockCartRepository) Delete(ctx context.Context, sessionID string) error {
	delete(m.carts, sessionID)
	return nil
}
