package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

var (
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
	customer = domain.Actor{UserID: "customer-1", Role: domain.RoleClient}
)

type recordingInvalidator struct {
	products []string
	addons   []string
	err      error
}

func (r *recordingInvalidator) InvalidateProduct(_ context.Context, id string) error {
	r.products = append(r.products, id)
	return r.err
}

func (r *recordingInvalidator) InvalidateAddon(_ context.Context, id string) error {
	r.addons = append(r.addons, id)
	return r.err
}

func newTestService() (*Service, *recordingInvalidator) {
	inv := &recordingInvalidator{}
	return NewService(memory.NewProductRepository(), memory.NewAddonRepository(), WithInvalidator(inv)), inv
}

func burgerInput(addonIDs ...string) ProductInput {
	return ProductInput{
		Name:     " Smash Burger ",
		Price:    decimal.RequireFromString("29.90"),
		Category: "Burger",
		AddonIDs: addonIDs,
	}
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProduct(context.Background(), customer, burgerInput())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateProduct_NormalizesAndDefaultsAvailable(t *testing.T) {
	svc, _ := newTestService()

	product, err := svc.CreateProduct(context.Background(), admin, burgerInput())
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.Name != "Smash Burger" || product.Category != domain.CategoryBurger {
		t.Fatalf("unexpected normalized product: %+v", product)
	}
	if !product.Available {
		t.Fatal("new product must be available by default")
	}
	if product.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProduct(context.Background(), admin, ProductInput{
		Price:    decimal.RequireFromString("-1"),
		Category: "pizza",
	})
	for _, want := range []error{domain.ErrNameRequired, domain.ErrPriceNegative, domain.ErrCategoryInvalid} {
		if !errors.Is(err, want) {
			t.Fatalf("expected %v in %v", want, err)
		}
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", err)
	}
}

func TestCreateProduct_UnknownAddonRef(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.CreateProduct(context.Background(), admin, burgerInput("missing"))
	if !errors.Is(err, domain.ErrUnknownAddonRef) {
		t.Fatalf("expected unknown addon ref, got %v", err)
	}
}

func TestCreateProduct_WithAddons(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	bacon, err := svc.CreateAddon(ctx, admin, AddonInput{Name: "Bacon", Price: decimal.RequireFromString("5.00")})
	if err != nil {
		t.Fatalf("create addon: %v", err)
	}
	product, err := svc.CreateProduct(ctx, admin, burgerInput(bacon.ID, bacon.ID))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if len(product.AddonIDs) != 1 || product.AddonIDs[0] != bacon.ID {
		t.Fatalf("expected deduplicated addon ids, got %v", product.AddonIDs)
	}
}

func TestTrashRestoreDeleteProduct(t *testing.T) {
	ctx := context.Background()
	svc, inv := newTestService()

	product, err := svc.CreateProduct(ctx, admin, burgerInput())
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := svc.DeleteProduct(ctx, admin, product.ID); !errors.Is(err, domain.ErrNotInTrash) {
		t.Fatalf("expected not in trash on hard delete of active product, got %v", err)
	}
	if err := svc.TrashProduct(ctx, admin, product.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}
	if err := svc.TrashProduct(ctx, admin, product.ID); !errors.Is(err, domain.ErrAlreadyInTrash) {
		t.Fatalf("expected already in trash, got %v", err)
	}

	active, _ := svc.ListProducts(ctx, domain.CatalogFilter{})
	if len(active) != 0 {
		t.Fatalf("trashed product must not be listed, got %d", len(active))
	}
	trash, err := svc.ListProductTrash(ctx, admin)
	if err != nil || len(trash) != 1 {
		t.Fatalf("expected one product in trash, got %d (%v)", len(trash), err)
	}
	if _, err := svc.GetProduct(ctx, customer, product.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("customer must not see trashed product, got %v", err)
	}

	if err := svc.RestoreProduct(ctx, admin, product.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if err := svc.RestoreProduct(ctx, admin, product.ID); !errors.Is(err, domain.ErrNotInTrash) {
		t.Fatalf("expected not in trash on second restore, got %v", err)
	}

	if err := svc.TrashProduct(ctx, admin, product.ID); err != nil {
		t.Fatalf("trash again: %v", err)
	}
	if err := svc.DeleteProduct(ctx, admin, product.ID); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if _, err := svc.GetProduct(ctx, admin, product.ID); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found after hard delete, got %v", err)
	}

	if len(inv.products) != 4 {
		t.Fatalf("expected 4 invalidations (trash, restore, trash, delete), got %d", len(inv.products))
	}
}

func TestUpdateProduct_InvalidationFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, inv := newTestService()
	inv.err = errors.New("redis down")

	product, err := svc.CreateProduct(ctx, admin, burgerInput())
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	unavailable := false
	in := burgerInput()
	in.Available = &unavailable
	in.Price = decimal.RequireFromString("31.00")

	updated, err := svc.UpdateProduct(ctx, admin, product.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Available || !updated.Price.Equal(decimal.RequireFromString("31.00")) {
		t.Fatalf("unexpected updated product: %+v", updated)
	}
}

func TestAddonLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, inv := newTestService()

	if _, err := svc.CreateAddon(ctx, customer, AddonInput{Name: "Cheddar"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := svc.CreateAddon(ctx, admin, AddonInput{Price: decimal.RequireFromString("1")}); !errors.Is(err, domain.ErrNameRequired) {
		t.Fatalf("expected name required, got %v", err)
	}

	addon, err := svc.CreateAddon(ctx, admin, AddonInput{Name: "Cheddar", Price: decimal.RequireFromString("4.50")})
	if err != nil {
		t.Fatalf("create addon: %v", err)
	}
	if _, err := svc.UpdateAddon(ctx, admin, addon.ID, AddonInput{Name: "Cheddar duplo", Price: decimal.RequireFromString("6")}); err != nil {
		t.Fatalf("update addon: %v", err)
	}
	if err := svc.TrashAddon(ctx, admin, addon.ID); err != nil {
		t.Fatalf("trash addon: %v", err)
	}

	list, _ := svc.ListAddons(ctx, domain.CatalogFilter{})
	if len(list) != 0 {
		t.Fatalf("expected no active addons, got %d", len(list))
	}
	if _, err := svc.ListAddonTrash(ctx, customer); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden trash listing, got %v", err)
	}
	if err := svc.DeleteAddon(ctx, admin, addon.ID); err != nil {
		t.Fatalf("delete addon: %v", err)
	}
	if len(inv.addons) != 3 {
		t.Fatalf("expected 3 addon invalidations, got %d", len(inv.addons))
	}
}

func TestReader_SkipsTrashed(t *testing.T) {
	ctx := context.Background()
	products, addons := memory.NewProductRepository(), memory.NewAddonRepository()
	svc := NewService(products, addons)
	reader := NewReader(products, addons)

	kept, _ := svc.CreateProduct(ctx, admin, burgerInput())
	gone, _ := svc.CreateProduct(ctx, admin, burgerInput())
	if err := svc.TrashProduct(ctx, admin, gone.ID); err != nil {
		t.Fatalf("trash: %v", err)
	}

	found, err := reader.FindProductsByIDs(ctx, []string{kept.ID, gone.ID, "unknown"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 || found[0].ID != kept.ID {
		t.Fatalf("expected only active product, got %+v", found)
	}
}
