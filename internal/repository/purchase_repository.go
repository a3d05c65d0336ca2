package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"inventario/internal/database"
	"inventario/internal/domain"
)

// PurchaseRepository records checkouts and reads purchase history
type PurchaseRepository interface {
	// Create decrements stock and inserts one purchase row per line in a
	// single transaction. Either every line is recorded or none is.
	Create(ctx context.Context, userID int64, lines []domain.PurchaseLine) ([]*domain.Purchase, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.PurchaseHistoryEntry, error)
	Count(ctx context.Context) (int, error)
}

type purchaseRepository struct {
	db *sql.DB
}

// NewPurchaseRepository creates a new instance of PurchaseRepository
func NewPurchaseRepository(db *sql.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, userID int64, lines []domain.PurchaseLine) ([]*domain.Purchase, error) {
	// Rows are locked in product id order so concurrent checkouts sharing
	// products cannot deadlock.
	ordered := make([]domain.PurchaseLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ProductID < ordered[j].ProductID
	})

	purchases := make([]*domain.Purchase, 0, len(ordered))

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, line := range ordered {
			if err := decrementStock(ctx, tx, line); err != nil {
				return err
			}

			purchase := &domain.Purchase{
				UserID:    userID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			}
			err := tx.QueryRowContext(ctx, `
				INSERT INTO compras (usuario_id, producto_id, cantidad)
				VALUES ($1, $2, $3)
				RETURNING id, fecha
			`, userID, line.ProductID, line.Quantity).Scan(&purchase.ID, &purchase.PurchasedAt)
			if err != nil {
				return fmt.Errorf("failed to insert purchase: %w", err)
			}
			purchases = append(purchases, purchase)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purchases, nil
}

// decrementStock subtracts the line quantity only if enough stock remains
func decrementStock(ctx context.Context, tx *sql.Tx, line domain.PurchaseLine) error {
	var remaining int
	err := tx.QueryRowContext(ctx, `
		UPDATE productos
		SET cantidad = cantidad - $2
		WHERE id = $1 AND cantidad >= $2
		RETURNING cantidad
	`, line.ProductID, line.Quantity).Scan(&remaining)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	var (
		name      string
		available int
	)
	err = tx.QueryRowContext(ctx, `SELECT nombre, cantidad FROM productos WHERE id = $1`, line.ProductID).
		Scan(&name, &available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to read stock: %w", err)
	}

	return &domain.InsufficientStockError{
		ProductID: line.ProductID,
		Name:      name,
		Available: available,
		Requested: line.Quantity,
	}
}

// ListByUser returns the user's purchases newest first
func (r *purchaseRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.PurchaseHistoryEntry, error) {
	query := `
		SELECT c.id, c.producto_id, p.nombre, c.cantidad, c.fecha
		FROM compras c
		JOIN productos p ON p.id = c.producto_id
		WHERE c.usuario_id = $1
		ORDER BY c.fecha DESC, c.id DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	entries := []*domain.PurchaseHistoryEntry{}
	for rows.Next() {
		entry := &domain.PurchaseHistoryEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.ProductID,
			&entry.ProductName,
			&entry.Quantity,
			&entry.PurchasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan purchase: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchases: %w", err)
	}

	return entries, nil
}

// Count returns the number of purchase records
func (r *purchaseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compras`).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count purchases: %w", err)
	}
	return total, nil
}
