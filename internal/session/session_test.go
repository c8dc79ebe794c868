package session

import (
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/draft"
	"github.com/modvault/wikidraft/internal/model"
)

var testPkg = model.PackageRef{Namespace: "AcmeMods", Name: "JetpackPlus"}

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
}

// failingStore rejects every operation, simulating a disabled or broken
// persistent store.
type failingStore struct{}

func (failingStore) Get(key string) (string, error) { return "", errors.New("store unavailable") }
func (failingStore) Set(key, value string) error    { return errors.New("store unavailable") }
func (failingStore) Remove(key string) error        { return errors.New("store unavailable") }

// recordingStore wraps a MemoryStore and counts accesses so tests can
// assert that existing-page sessions never touch the store.
type recordingStore struct {
	inner   *draft.MemoryStore
	gets    int
	sets    int
	removes int
}

func newRecordingStore() *recordingStore {
	return &recordingStore{inner: draft.NewMemoryStore()}
}

func (r *recordingStore) Get(key string) (string, error) {
	r.gets++
	return r.inner.Get(key)
}

func (r *recordingStore) Set(key, value string) error {
	r.sets++
	return r.inner.Set(key, value)
}

func (r *recordingStore) Remove(key string) error {
	r.removes++
	return r.inner.Remove(key)
}

func TestNewPageSeedingPriority(t *testing.T) {
	t.Run("Stored draft wins over supplied content", func(t *testing.T) {
		store := draft.NewMemoryStore()
		if err := store.Set(draft.NewPageBodyKey, "cached draft body"); err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}

		m := New(&Seed{Body: "suggested content"}, testPkg, store, testLogger())

		if got := m.State().Body; got != "cached draft body" {
			t.Errorf("Expected stored draft to win, got %q", got)
		}
	})

	t.Run("Supplied content wins when no draft exists", func(t *testing.T) {
		m := New(&Seed{Body: "suggested content"}, testPkg, draft.NewMemoryStore(), testLogger())

		if got := m.State().Body; got != "suggested content" {
			t.Errorf("Expected supplied content, got %q", got)
		}
	})

	t.Run("Default body when neither exists", func(t *testing.T) {
		m := New(nil, testPkg, draft.NewMemoryStore(), testLogger())

		if got := m.State().Body; got != draft.DefaultBody {
			t.Errorf("Expected default body, got %q", got)
		}
	})

	t.Run("Broken store degrades to supplied content", func(t *testing.T) {
		m := New(&Seed{Body: "suggested content"}, testPkg, failingStore{}, testLogger())

		if got := m.State().Body; got != "suggested content" {
			t.Errorf("Expected supplied content on store failure, got %q", got)
		}
	})

	t.Run("Nil store behaves like no draft", func(t *testing.T) {
		m := New(nil, testPkg, nil, testLogger())

		if got := m.State().Body; got != draft.DefaultBody {
			t.Errorf("Expected default body with nil store, got %q", got)
		}
	})

	t.Run("Store is read once at construction", func(t *testing.T) {
		store := newRecordingStore()
		m := New(nil, testPkg, store, testLogger())

		m.SetBody("a")
		m.SetBody("b")
		_ = m.Dirty()

		if store.gets != 1 {
			t.Errorf("Expected exactly 1 store read, got %d", store.gets)
		}
	})
}

func TestExistingPagePersistenceIsolation(t *testing.T) {
	store := newRecordingStore()

	m := New(&Seed{ID: "page-1", Title: "Install guide", Body: "original"}, testPkg, store, testLogger())

	m.SetBody("edit one")
	m.SetBody("edit two")
	m.SetBody("edit three")

	if store.gets != 0 || store.sets != 0 {
		t.Errorf("Expected no store access for existing page, got %d gets and %d sets", store.gets, store.sets)
	}

	t.Run("Subsequent new-page session is unaffected", func(t *testing.T) {
		fresh := New(nil, testPkg, store.inner, testLogger())
		if got := fresh.State().Body; got != draft.DefaultBody {
			t.Errorf("Expected unaffected new-page session to see default body, got %q", got)
		}
	})
}

func TestDraftRoundTrip(t *testing.T) {
	store := draft.NewMemoryStore()

	first := New(nil, testPkg, store, testLogger())
	first.SetBody("X")

	// Discard the first session; only the store survives.
	second := New(nil, testPkg, store, testLogger())

	if got := second.State().Body; got != "X" {
		t.Errorf("Expected second session to resume draft %q, got %q", "X", got)
	}
}

func TestClearCache(t *testing.T) {
	t.Run("Next session starts from default", func(t *testing.T) {
		store := draft.NewMemoryStore()

		m := New(nil, testPkg, store, testLogger())
		m.SetBody("work in progress")
		m.ClearCache()

		fresh := New(nil, testPkg, store, testLogger())
		if got := fresh.State().Body; got != draft.DefaultBody {
			t.Errorf("Expected default body after ClearCache, got %q", got)
		}
	})

	t.Run("Idempotent on absent draft", func(t *testing.T) {
		m := New(nil, testPkg, draft.NewMemoryStore(), testLogger())
		m.ClearCache()
		m.ClearCache() // must not panic or error
	})

	t.Run("Store failure is swallowed", func(t *testing.T) {
		m := New(nil, testPkg, failingStore{}, testLogger())
		m.ClearCache()
	})
}

func TestDirtyFlag(t *testing.T) {
	m := New(&Seed{ID: "page-1", Body: "A"}, testPkg, draft.NewMemoryStore(), testLogger())

	if m.Dirty() {
		t.Error("Expected fresh session to be clean")
	}

	m.SetBody("B")
	if !m.Dirty() {
		t.Error("Expected session to be dirty after body change")
	}

	m.SetBody("A")
	if m.Dirty() {
		t.Error("Expected restoring the original body to clear dirtiness")
	}

	t.Run("SetTitle never affects dirtiness", func(t *testing.T) {
		m.SetTitle("Brand new title")
		if m.Dirty() {
			t.Error("Expected title change to leave session clean")
		}

		m.SetBody("B")
		m.SetTitle("Another title")
		if !m.Dirty() {
			t.Error("Expected title change to leave session dirty")
		}
	})

	t.Run("New-page sessions are never dirty", func(t *testing.T) {
		fresh := New(nil, testPkg, draft.NewMemoryStore(), testLogger())
		fresh.SetBody("lots of work")
		if fresh.Dirty() {
			t.Error("Expected new-page session to never report dirty")
		}
	})
}

func TestMarkSaved(t *testing.T) {
	t.Run("Re-baselines an existing page", func(t *testing.T) {
		m := New(&Seed{ID: "page-1", Body: "A"}, testPkg, draft.NewMemoryStore(), testLogger())

		m.SetBody("B")
		m.MarkSaved()

		if m.Dirty() {
			t.Error("Expected session to be clean after MarkSaved")
		}

		m.SetBody("A")
		if !m.Dirty() {
			t.Error("Expected dirtiness against the new baseline, not the original body")
		}
	})

	t.Run("No-op for new pages", func(t *testing.T) {
		m := New(nil, testPkg, draft.NewMemoryStore(), testLogger())
		m.SetBody("content")
		m.MarkSaved()
		if m.Dirty() {
			t.Error("Expected new-page session to stay clean")
		}
	})
}

func TestModeImmutability(t *testing.T) {
	store := newRecordingStore()

	m := New(&Seed{ID: "page-1", Body: "original"}, testPkg, store, testLogger())
	if m.Mode() != ModeExistingPage {
		t.Fatal("Expected existing-page mode")
	}

	// Hammer the session; it must never start caching.
	for i := 0; i < 25; i++ {
		m.SetBody("edit")
		m.SetBody(draft.DefaultBody)
		m.SetTitle("title")
	}

	if m.Mode() != ModeExistingPage {
		t.Error("Expected mode to stay fixed for the session's lifetime")
	}
	if store.sets != 0 {
		t.Errorf("Expected zero draft writes from an existing-page session, got %d", store.sets)
	}
}

func TestBodyChangeNotifier(t *testing.T) {
	var got []string

	m := New(nil, testPkg, draft.NewMemoryStore(), testLogger())
	m.SetBodyChangeNotifier(func(body string) {
		got = append(got, body)
	})

	m.SetBody("one")
	m.SetBody("two")
	m.SetTitle("no notification for titles")

	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Expected notifier to see every body in order, got %v", got)
	}
}

func TestState(t *testing.T) {
	m := New(&Seed{ID: "page-1", Title: "Install guide", Body: "original"}, testPkg, draft.NewMemoryStore(), testLogger())

	state := m.State()
	if state.ID != "page-1" || state.Title != "Install guide" || state.Body != "original" {
		t.Errorf("Unexpected state snapshot: %+v", state)
	}

	if m.Pkg() != testPkg {
		t.Errorf("Expected package ref %v, got %v", testPkg, m.Pkg())
	}
}
