package repository

import (
	"context"
	"errors"
	"testing"

	"inventario/internal/domain"
)

func TestCustomerRepository_CRUD(t *testing.T) {
	requireDB(t)
	repo := NewCustomerRepository(testDB)
	ctx := context.Background()

	zoe := &domain.Customer{Name: "Zoe", Address: "Calle 1", Email: "zoe@example.com"}
	ana := &domain.Customer{Name: "Ana", Address: "Calle 2", Email: "ana@example.com"}
	for _, c := range []*domain.Customer{zoe, ana} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("Failed to create customer: %v", err)
		}
		if c.ID == 0 {
			t.Fatal("expected generated id")
		}
	}

	dup := &domain.Customer{Name: "Other", Address: "x", Email: "ana@example.com"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrCustomerAlreadyExists) {
		t.Fatalf("expected ErrCustomerAlreadyExists, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 customers, got %d (%v)", len(list), err)
	}
	if list[0].Name != "Ana" {
		t.Errorf("customers must be ordered by name, first is %s", list[0].Name)
	}

	zoe.Address = "Calle 9"
	if err := repo.Update(ctx, zoe); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	got, err := repo.FindByID(ctx, zoe.ID)
	if err != nil || got.Address != "Calle 9" {
		t.Fatalf("update not persisted: %+v (%v)", got, err)
	}

	if err := repo.Delete(ctx, zoe.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, zoe.ID); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}
	if err := repo.Update(ctx, zoe); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound on update, got %v", err)
	}
}
