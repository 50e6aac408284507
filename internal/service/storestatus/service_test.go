package storestatus

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/rms/internal/domain"
	"github.com/vladislavdragonenkov/rms/internal/storage/memory"
)

func TestGet_LazyBootstrap(t *testing.T) {
	svc := NewService(memory.NewStoreConfigRepository(), nil)

	cfg, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cfg.IsOpen || cfg.OpeningMessage != domain.DefaultOpeningMessage || cfg.ID != domain.StoreConfigID {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestBootstrap_KeepsExistingConfig(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewStoreConfigRepository()
	svc := NewService(repo, nil)

	closed := false
	if _, err := svc.Update(ctx, domain.Actor{UserID: "a", Role: domain.RoleAdmin}, UpdateInput{IsOpen: &closed}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	open, err := svc.IsOpen(ctx)
	if err != nil {
		t.Fatalf("is open: %v", err)
	}
	if open {
		t.Fatal("bootstrap must not overwrite existing config")
	}
}

func TestUpdate_StaffOnlyPartial(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewStoreConfigRepository(), nil)

	closed := false
	if _, err := svc.Update(ctx, domain.Actor{UserID: "c", Role: domain.RoleClient}, UpdateInput{IsOpen: &closed}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	msg := "  Volte amanhã  "
	cfg, err := svc.Update(ctx, domain.Actor{UserID: "k", Role: domain.RoleKitchen}, UpdateInput{ClosingMessage: &msg})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if cfg.ClosingMessage != "Volte amanhã" || !cfg.IsOpen || cfg.OpeningMessage != domain.DefaultOpeningMessage {
		t.Fatalf("unexpected config after partial update: %+v", cfg)
	}
}
