package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"socialcard-server/core"
)

func TestMain(m *testing.M) {
	if !CGOEnabled {
		fmt.Println("skipping sqlite store tests: CGO disabled")
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *cardStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewCardStore(dbPath).(*cardStore)
	t.Cleanup(func() { store.db.Close() })
	return store
}

func TestNewCardStore_TableCreated(t *testing.T) {
	store := setupTestDB(t)

	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='cards'").Scan(&tableName)
	if err != nil {
		t.Fatalf("cards table not created: %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	card, err := store.Create(ctx, &core.SavedCard{URL: "u", Headline: "h", Tagline: "t"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(card.ID) != 26 {
		t.Errorf("Create() returned invalid ID length: got %d, want 26", len(card.ID))
	}

	// Verify data in database
	var url, headline, tagline string
	err = store.db.QueryRow("SELECT url, headline, tagline FROM cards WHERE id = ?", card.ID).Scan(&url, &headline, &tagline)
	if err != nil {
		t.Fatalf("Failed to query card: %v", err)
	}
	if url != "u" || headline != "h" || tagline != "t" {
		t.Errorf("Data mismatch: got %q %q %q", url, headline, tagline)
	}
}

func TestFindID(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	card, err := store.Create(ctx, &core.SavedCard{URL: "u", Headline: "h"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	found, err := store.FindID(ctx, card.ID)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if found.Headline != "h" || found.Tagline != "" {
		t.Errorf("FindID() mismatch: got %+v", found)
	}
	if !found.CreatedAt.Equal(card.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", found.CreatedAt, card.CreatedAt)
	}

	if _, err := store.FindID(ctx, "nonexistent-id"); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("FindID() error mismatch: got %v, want ErrCardNotFound", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		card, err := store.Create(ctx, &core.SavedCard{URL: fmt.Sprintf("u%d", i), Headline: "h"})
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		ids = append(ids, card.ID)
	}

	cards, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(cards) != len(ids) {
		t.Fatalf("List() length mismatch: got %d, want %d", len(cards), len(ids))
	}
	for i, card := range cards {
		if want := ids[len(ids)-1-i]; card.ID != want {
			t.Errorf("List()[%d] mismatch: got %q, want %q", i, card.ID, want)
		}
	}
}

func TestList_Empty(t *testing.T) {
	store := setupTestDB(t)

	cards, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if cards == nil || len(cards) != 0 {
		t.Errorf("List() mismatch: got %v, want empty slice", cards)
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	numGoroutines := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Create(ctx, &core.SavedCard{URL: "u", Headline: "h"}); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// SQLite may report "database is locked" under concurrent writes
	cards, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(cards)+len(errs) != numGoroutines {
		t.Errorf("Card count mismatch: got %d cards and %d errors, want %d total", len(cards), len(errs), numGoroutines)
	}
}
