package operate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"chronicle/internal/audit/models"
)

func record(resource string) models.OperateRecord {
	return models.OperateRecord{
		ID:        uuid.New(),
		Actor:     "alice",
		Action:    models.ActionCreate,
		Resource:  resource,
		CreatedAt: time.Now(),
	}
}

func TestMemoryListRecent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	for _, name := range []string{"first", "second", "third"} {
		if err := store.Create(ctx, record(name)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err := store.ListRecent(ctx, "", 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Resource != "third" || got[1].Resource != "second" {
		t.Fatalf("expected newest first, got %q then %q", got[0].Resource, got[1].Resource)
	}
}

func TestMemoryListRecentByOrg(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tagged := record("tagged")
	tagged.OrgID = "org-7"
	for _, r := range []models.OperateRecord{record("plain"), tagged} {
		if err := store.Create(ctx, r); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	got, err := store.ListRecent(ctx, "org-7", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].Resource != "tagged" {
		t.Fatalf("expected only the org-scoped record, got %v", got)
	}
}

func TestMemoryListRecentBeyondSize(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	if err := store.Create(ctx, record("only")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.ListRecent(ctx, "", 50)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestMemoryBulkCreate(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	batch := []models.OperateRecord{record("a"), record("b")}
	if err := store.BulkCreate(ctx, batch); err != nil {
		t.Fatalf("bulk create failed: %v", err)
	}
	if got := store.All(); len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}
