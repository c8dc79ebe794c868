package draft

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/db"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	t.Run("Get absent key", func(t *testing.T) {
		_, err := store.Get(NewPageBodyKey)
		if !errors.Is(err, ErrNoDraft) {
			t.Errorf("Expected ErrNoDraft, got %v", err)
		}
	})

	t.Run("Set and Get", func(t *testing.T) {
		if err := store.Set(NewPageBodyKey, "draft body"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := store.Get(NewPageBodyKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "draft body" {
			t.Errorf("Expected %q, got %q", "draft body", got)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		store.Set(NewPageBodyKey, "first")
		store.Set(NewPageBodyKey, "second")

		got, _ := store.Get(NewPageBodyKey)
		if got != "second" {
			t.Errorf("Expected overwrite to win, got %q", got)
		}
	})

	t.Run("Remove is idempotent", func(t *testing.T) {
		store.Set(NewPageBodyKey, "to be removed")
		if err := store.Remove(NewPageBodyKey); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if err := store.Remove(NewPageBodyKey); err != nil {
			t.Errorf("Expected removing absent key to be a no-op, got %v", err)
		}

		_, err := store.Get(NewPageBodyKey)
		if !errors.Is(err, ErrNoDraft) {
			t.Errorf("Expected ErrNoDraft after remove, got %v", err)
		}
	})

	t.Run("Concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				key := fmt.Sprintf("key-%d", n%5)
				store.Set(key, "value")
				store.Get(key)
				store.Remove(key)
			}(i)
		}
		wg.Wait()
	})
}

func TestNoopStore(t *testing.T) {
	store := NewNoopStore()

	if err := store.Set(NewPageBodyKey, "ignored"); err != nil {
		t.Errorf("Expected Set to succeed silently, got %v", err)
	}

	_, err := store.Get(NewPageBodyKey)
	if !errors.Is(err, ErrNoDraft) {
		t.Errorf("Expected ErrNoDraft from noop store, got %v", err)
	}

	if err := store.Remove(NewPageBodyKey); err != nil {
		t.Errorf("Expected Remove to succeed silently, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	db.SetLogger(logger)

	dbFile, err := os.CreateTemp("", "test-drafts-*.sqlite")
	if err != nil {
		t.Fatalf("Failed to create temp db file: %v", err)
	}
	defer os.Remove(dbFile.Name())
	dbFile.Close()

	sqlite := db.NewSQLite(dbFile.Name())
	if err := sqlite.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer sqlite.Close()

	store := NewSQLiteStore(sqlite)

	t.Run("Get absent key", func(t *testing.T) {
		_, err := store.Get(NewPageBodyKey)
		if !errors.Is(err, ErrNoDraft) {
			t.Errorf("Expected ErrNoDraft, got %v", err)
		}
	})

	t.Run("Round trip with compression", func(t *testing.T) {
		body := "# My draft\n\nSome longer body content that compresses.\n"
		if err := store.Set(NewPageBodyKey, body); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := store.Get(NewPageBodyKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != body {
			t.Errorf("Round trip mismatch: expected %q, got %q", body, got)
		}
	})

	t.Run("Upsert overwrites", func(t *testing.T) {
		store.Set(NewPageBodyKey, "first")
		if err := store.Set(NewPageBodyKey, "second"); err != nil {
			t.Fatalf("Second Set failed: %v", err)
		}

		got, err := store.Get(NewPageBodyKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "second" {
			t.Errorf("Expected upsert to overwrite, got %q", got)
		}
	})

	t.Run("Survives a second store over the same database", func(t *testing.T) {
		store.Set(NewPageBodyKey, "persisted across stores")

		reopened := NewSQLiteStore(sqlite)
		got, err := reopened.Get(NewPageBodyKey)
		if err != nil {
			t.Fatalf("Get from second store failed: %v", err)
		}
		if got != "persisted across stores" {
			t.Errorf("Expected draft to persist, got %q", got)
		}
	})

	t.Run("Remove is idempotent", func(t *testing.T) {
		if err := store.Remove(NewPageBodyKey); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
		if err := store.Remove(NewPageBodyKey); err != nil {
			t.Errorf("Expected removing absent key to be a no-op, got %v", err)
		}

		_, err := store.Get(NewPageBodyKey)
		if !errors.Is(err, ErrNoDraft) {
			t.Errorf("Expected ErrNoDraft after remove, got %v", err)
		}
	})

	t.Run("Empty body round trip", func(t *testing.T) {
		if err := store.Set(NewPageBodyKey, ""); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := store.Get(NewPageBodyKey)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "" {
			t.Errorf("Expected empty body, got %q", got)
		}
	})
}
