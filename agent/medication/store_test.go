package medication

import (
	"sync"
	"testing"
	"time"

	contractx "github.com/careloop/health-coach/agent/contract"
)

func TestUpsertIdempotent(t *testing.T) {
	t.Parallel()

	tick := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewStore(WithClock(func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}))

	first, err := store.Upsert("Ibuprofen")
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := store.Upsert("Ibuprofen")
	if err != nil {
		t.Fatalf("Upsert() second error = %v", err)
	}

	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("duplicate upsert refreshed CreatedAt: %v != %v", second.CreatedAt, first.CreatedAt)
	}
	if got := store.List(); len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestUpsertNormalizesWhitespace(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if _, err := store.Upsert("  Ibu   profen  "); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := store.Upsert("Ibu profen"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got := store.List()
	if len(got) != 1 {
		t.Fatalf("expected collision to one record, got %d", len(got))
	}
	if got[0].Name != "Ibu profen" {
		t.Fatalf("unexpected stored name: %q", got[0].Name)
	}
}

func TestUpsertCaseSensitive(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if _, err := store.Upsert("Aspirin"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := store.Upsert("aspirin"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if got := store.List(); len(got) != 2 {
		t.Fatalf("case-sensitive names must not collide, got %d records", len(got))
	}
}

func TestUpsertEmptyName(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if _, err := store.Upsert("   "); err == nil {
		t.Fatal("expected validation error for blank name")
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("failed upsert must not mutate the store, got %d records", len(got))
	}
}

func TestListInsertionOrder(t *testing.T) {
	t.Parallel()

	store := NewStore()
	for _, name := range []string{"Metformin", "Aspirin", "Ibuprofen"} {
		if _, err := store.Upsert(name); err != nil {
			t.Fatalf("Upsert(%q) error = %v", name, err)
		}
	}

	got := store.List()
	want := []string{"Metformin", "Aspirin", "Ibuprofen"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Fatalf("order mismatch at %d: got %q, want %q", i, got[i].Name, name)
		}
	}
	if got[0].Status != contractx.StatusSaved {
		t.Fatalf("unexpected status: %s", got[0].Status)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore()
	if store.Remove("Unknown") {
		t.Fatal("remove on empty store must report nothing deleted")
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("store must stay empty, got %d records", len(got))
	}

	if _, err := store.Upsert("Aspirin"); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if !store.Remove("  Aspirin ") {
		t.Fatal("remove with unnormalized name must match the stored record")
	}
	if store.Remove("Aspirin") {
		t.Fatal("second remove must be a no-op")
	}
}

func TestClearReturnsCount(t *testing.T) {
	t.Parallel()

	store := NewStore()
	for _, name := range []string{"A", "B", "C"} {
		if _, err := store.Upsert(name); err != nil {
			t.Fatalf("Upsert(%q) error = %v", name, err)
		}
	}

	if got := store.Clear(); got != 3 {
		t.Fatalf("Clear() = %d, want 3", got)
	}
	if got := store.List(); len(got) != 0 {
		t.Fatalf("expected empty store after clear, got %d records", len(got))
	}
	if got := store.Clear(); got != 0 {
		t.Fatalf("Clear() on empty store = %d, want 0", got)
	}
}

func TestConcurrentUpsertSameKey(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Upsert("Metformin"); err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := store.List(); len(got) != 1 {
		t.Fatalf("concurrent upserts produced %d records, want 1", len(got))
	}
}
