package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"inventario/internal/domain"
	"inventario/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt hashing
const BcryptCost = 10

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRegistrationFailed = errors.New("registration failed, the email may already be in use")
)

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// unknownUserHash is compared against on the unknown-email path so it costs
// the same bcrypt work as a wrong password
func unknownUserHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("inventario-unknown-user"), BcryptCost)
	})
	return dummyHash
}

// UserService defines the interface for user business logic
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	// EnsureAdmin creates an administrator, or promotes the existing
	// account with that email. It reports whether a new row was created.
	EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error)
}

type userService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

// Register creates a new account with role user and a hashed password
func (s *userService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	return s.create(ctx, name, email, password, domain.RoleUser)
}

func (s *userService) create(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        normalizeEmail(email),
		PasswordHash: hashedPassword,
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserAlreadyExists) {
			return nil, ErrRegistrationFailed
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(unknownUserHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	existing, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role != domain.RoleAdmin {
			if err := s.userRepo.UpdateRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
				return nil, false, fmt.Errorf("failed to promote user: %w", err)
			}
			existing.Role = domain.RoleAdmin
		}
		return existing, false, nil
	case errors.Is(err, repository.ErrUserNotFound):
		user, err := s.create(ctx, name, email, password, domain.RoleAdmin)
		if err != nil {
			return nil, false, err
		}
		return user, true, nil
	default:
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}
}

// hashPassword hashes a password using bcrypt with cost factor 10
func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
