package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

func TestProductRepository_FindByIDsSkipsTrashedAndUnknown(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	now := time.Now().UTC()

	active := domain.Product{ID: "p1", Name: "Classic", Price: decimal.RequireFromString("30"), Category: domain.CategoryBurger, Available: true}
	trashed := domain.Product{ID: "p2", Name: "Old", Price: decimal.RequireFromString("10"), Category: domain.CategoryBurger, DeletedAt: &now}
	for _, p := range []domain.Product{active, trashed} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %s failed: %v", p.ID, err)
		}
	}

	found, err := repo.FindByIDs(ctx, []string{"p1", "p1", "p2", "ghost"})
	if err != nil {
		t.Fatalf("FindByIDs failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != "p1" {
		t.Fatalf("expected only the active product once, got %+v", found)
	}

	// Get видит и товары из корзины.
	if _, err := repo.Get(ctx, "p2"); err != nil {
		t.Fatalf("Get trashed product failed: %v", err)
	}
}

func TestProductRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewProductRepository()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "b1", Name: "Bacon Burger", Category: domain.CategoryBurger, Available: true},
		{ID: "b2", Name: "Veggie", Category: domain.CategoryBurger, Available: false},
		{ID: "d1", Name: "Soda", Category: domain.CategoryDrink, Available: true},
		{ID: "t1", Name: "Trashed", Category: domain.CategoryDrink, DeletedAt: &now},
	}
	for _, p := range products {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %s failed: %v", p.ID, err)
		}
	}

	all, _ := repo.List(ctx, domain.CatalogFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3 active products, got %d", len(all))
	}

	available := true
	burgers, _ := repo.List(ctx, domain.CatalogFilter{Category: "BURGER", Available: &available})
	if len(burgers) != 1 || burgers[0].ID != "b1" {
		t.Fatalf("expected only available burger, got %+v", burgers)
	}

	trash, _ := repo.List(ctx, domain.CatalogFilter{Trashed: true})
	if len(trash) != 1 || trash[0].ID != "t1" {
		t.Fatalf("expected one trashed product, got %+v", trash)
	}

	if err := repo.Delete(ctx, "t1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "t1"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
}

func TestAddonRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAddonRepository()

	addon := domain.Addon{ID: "a1", Name: "Cheddar", Price: decimal.RequireFromString("4.50"), Available: true}
	if err := repo.Create(ctx, addon); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, addon); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}

	addon.Price = decimal.RequireFromString("5")
	if err := repo.Update(ctx, addon); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stored, err := repo.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.Price.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected updated price, got %s", stored.Price)
	}

	if err := repo.Update(ctx, domain.Addon{ID: "ghost"}); !errors.Is(err, domain.ErrAddonNotFound) {
		t.Fatalf("expected ErrAddonNotFound, got %v", err)
	}
}

func TestAddressRepository_OwnerScope(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewAddressRepository()

	address := domain.Address{ID: "addr-1", UserID: "alice", Street: "Rua A", City: "Rio", State: "RJ"}
	if err := repo.Create(ctx, address); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := repo.GetForOwner(ctx, "addr-1", "bob"); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("foreign owner must get ErrAddressNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "addr-1", "bob"); !errors.Is(err, domain.ErrAddressNotFound) {
		t.Fatalf("foreign delete must fail, got %v", err)
	}

	list, _ := repo.ListByOwner(ctx, "alice")
	if len(list) != 1 {
		t.Fatalf("expected one address, got %d", len(list))
	}

	if err := repo.Delete(ctx, "addr-1", "alice"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	list, _ = repo.ListByOwner(ctx, "alice")
	if len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(list))
	}
}

func TestUserRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewUserRepository()

	if err := repo.Create(ctx, domain.User{ID: "u1", Email: "Ana@Example.com", Role: domain.RoleClient}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(ctx, domain.User{ID: "u2", Email: "ana@example.com"}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	user, err := repo.GetByEmail(ctx, " ANA@example.com ")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected u1, got %s", user.ID)
	}

	user.Email = "ana.new@example.com"
	if err := repo.Update(ctx, user); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "ana@example.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("old email must be released, got %v", err)
	}
}

func TestStoreConfigRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStoreConfigRepository()

	if _, err := repo.Get(ctx); !errors.Is(err, domain.ErrStoreConfigAbsent) {
		t.Fatalf("expected ErrStoreConfigAbsent, got %v", err)
	}

	created, err := repo.CreateIfAbsent(ctx, domain.DefaultStoreConfig(time.Now()))
	if err != nil || !created {
		t.Fatalf("expected first CreateIfAbsent to create, got created=%v err=%v", created, err)
	}

	closed := domain.DefaultStoreConfig(time.Now())
	closed.IsOpen = false
	created, err = repo.CreateIfAbsent(ctx, closed)
	if err != nil || created {
		t.Fatalf("expected second CreateIfAbsent to be a no-op, got created=%v err=%v", created, err)
	}

	cfg, _ := repo.Get(ctx)
	if !cfg.IsOpen || cfg.ID != domain.StoreConfigID {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if err := repo.Put(ctx, closed); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	cfg, _ = repo.Get(ctx)
	if cfg.IsOpen {
		t.Fatal("expected store to be closed after put")
	}
}
