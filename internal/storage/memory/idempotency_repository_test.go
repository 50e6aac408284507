package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

func TestIdempotencyRepository_CreateProcessingConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository()
	ttl := time.Now().UTC().Add(time.Hour)

	record, err := repo.CreateProcessing(ctx, "key-1", "hash-1", ttl)
	if err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}
	if record.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", record.Status)
	}

	if _, err := repo.CreateProcessing(ctx, "key-1", "hash-1", ttl); !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if _, err := repo.CreateProcessing(ctx, "key-1", "hash-2", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}
	if _, err := repo.CreateProcessing(ctx, " ", "hash", ttl); !errors.Is(err, domain.ErrIdempotencyKeyRequired) {
		t.Fatalf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
	if _, err := repo.CreateProcessing(ctx, "key-2", "", ttl); !errors.Is(err, domain.ErrIdempotencyRequestHashRequired) {
		t.Fatalf("expected ErrIdempotencyRequestHashRequired, got %v", err)
	}
}

func TestIdempotencyRepository_FinishAndExpire(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository()
	now := time.Now().UTC()

	if _, err := repo.CreateProcessing(ctx, "expired-old", "h", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}
	if _, err := repo.CreateProcessing(ctx, "expired-new", "h", now.Add(-time.Hour)); err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}
	if _, err := repo.CreateProcessing(ctx, "active", "h", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateProcessing failed: %v", err)
	}

	if err := repo.MarkDone(ctx, "active", []byte(`{"ok":true}`), 201); err != nil {
		t.Fatalf("MarkDone failed: %v", err)
	}
	active, err := repo.Get(ctx, "active")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if active.Status != domain.IdempotencyStatusDone || active.HTTPStatus != 201 {
		t.Fatalf("unexpected record: %+v", active)
	}
	if err := repo.MarkFailed(ctx, "missing", nil, 500); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}

	removed, err := repo.DeleteExpired(ctx, now, 1)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected removed=1, got %d", removed)
	}
	if _, err := repo.Get(ctx, "expired-old"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected the oldest key to go first, got %v", err)
	}

	removed, _ = repo.DeleteExpired(ctx, now, 10)
	if removed != 1 {
		t.Fatalf("expected second pass to remove 1, got %d", removed)
	}
	if _, err := repo.Get(ctx, "active"); err != nil {
		t.Fatalf("active key must survive cleanup: %v", err)
	}
}
