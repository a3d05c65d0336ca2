package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inventario/internal/database"
	"inventario/internal/domain"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user with this email already exists")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateRole(ctx context.Context, id int64, role domain.Role) error
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user; id and creation time are filled from the database
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO usuarios (nombre, email, password_hash, rol)
		VALUES ($1, $2, $3, $4)
		RETURNING id, creado_en
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindByEmail retrieves a user by email using parameterized queries
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, nombre, email, password_hash, rol, creado_en
		FROM usuarios
		WHERE email = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email), "email")
}

// FindByID retrieves a user by ID using parameterized queries
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, nombre, email, password_hash, rol, creado_en
		FROM usuarios
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id), "ID")
}

// UpdateRole changes the role of an existing account. Only used by the
// administrator seeding command.
func (r *userRepository) UpdateRole(ctx context.Context, id int64, role domain.Role) error {
	result, err := r.db.ExecContext(ctx, `UPDATE usuarios SET rol = $2 WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Count returns the number of registered users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM usuarios`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return total, nil
}

func (r *userRepository) scanOne(row *sql.Row, by string) (*domain.User, error) {
	user := &domain.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", by, err)
	}

	user.Role = domain.Role(role)
	return user, nil
}
