// Package session tracks an in-progress wiki page edit: its title and body,
// local persistence of new-page drafts, and the unsaved-changes flag for
// existing pages.
package session

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/draft"
	"github.com/modvault/wikidraft/internal/model"
)

// Mode says whether the session edits a page that already exists or
// creates a new one. It is fixed for the manager's whole lifetime.
type Mode int

const (
	// ModeNewPage: no backing page ID. The body is cached in the draft
	// store on every edit so it survives reloads.
	ModeNewPage Mode = iota
	// ModeExistingPage: editing a stored page. Edits never touch the
	// draft store; instead the body is compared against the original to
	// drive the unsaved-changes warning.
	ModeExistingPage
)

// Seed is the initial page data a session is constructed from.
// A nil seed, or one without an ID, starts a new-page session; Body then
// only serves as suggested starting content and loses to a stored draft.
type Seed struct {
	ID    model.PageID
	Title string
	Body  string
}

// View is the read-only snapshot exposed to templates and handlers.
type View struct {
	ID    model.PageID
	Title string
	Body  string
}

// Manager owns one edit session. It is not safe for concurrent use; each
// editor session gets its own manager and all calls for one session are
// serialized by the HTTP layer. The injected draft store is shared.
type Manager struct {
	pkg model.PackageRef

	id           model.PageID
	title        string
	body         string
	originalBody string

	drafts draft.Store

	onBodyChange func(body string)

	log zerolog.Logger
}

// New constructs a session manager. In new-page mode the draft store is
// consulted exactly once, here: stored draft wins over seed.Body wins over
// draft.DefaultBody. A failing store silently degrades to the next option.
func New(seed *Seed, pkg model.PackageRef, drafts draft.Store, log zerolog.Logger) *Manager {
	if drafts == nil {
		drafts = draft.NewNoopStore()
	}

	m := &Manager{
		pkg:    pkg,
		drafts: drafts,
		log:    log,
	}

	if seed != nil && seed.ID != "" {
		m.id = seed.ID
		m.title = seed.Title
		m.body = seed.Body
		m.originalBody = seed.Body
		return m
	}

	if seed != nil {
		m.title = seed.Title
	}
	m.body = m.seedNewPageBody(seed)
	return m
}

// seedNewPageBody resolves the three-way fallback for a new page's body.
// A stale draft deliberately beats caller-supplied content: the draft is
// the more recent statement of user intent.
func (m *Manager) seedNewPageBody(seed *Seed) string {
	cached, err := m.drafts.Get(draft.NewPageBodyKey)
	if err == nil {
		return cached
	}
	if !errors.Is(err, draft.ErrNoDraft) {
		m.log.Debug().Err(err).Msg("Draft store read failed, falling back to initial content")
	}

	if seed != nil && seed.Body != "" {
		return seed.Body
	}
	return draft.DefaultBody
}

// Mode reports which of the two fixed modes the session is in.
func (m *Manager) Mode() Mode {
	if m.id != "" {
		return ModeExistingPage
	}
	return ModeNewPage
}

// SetTitle updates the title. Titles are never cached and never count
// towards dirtiness.
func (m *Manager) SetTitle(title string) {
	m.title = title
}

// SetBody updates the body. New-page sessions additionally cache the value
// in the draft store; a failed write is logged and dropped, the in-memory
// update always sticks.
func (m *Manager) SetBody(body string) {
	m.body = body

	if m.Mode() == ModeNewPage {
		if err := m.drafts.Set(draft.NewPageBodyKey, body); err != nil {
			m.log.Debug().Err(err).Msg("Draft store write failed, keeping in-memory state only")
		}
	}

	if m.onBodyChange != nil {
		m.onBodyChange(body)
	}
}

// ClearCache removes the persisted new-page draft. Callers invoke it right
// after a successful page create so the next new-page session starts clean.
// Removing an absent draft is a no-op.
func (m *Manager) ClearCache() {
	if err := m.drafts.Remove(draft.NewPageBodyKey); err != nil {
		m.log.Debug().Err(err).Msg("Draft store remove failed")
	}
}

// Dirty reports whether an existing page has unsaved changes. It is
// recomputed from the two stored strings on every call; new-page sessions
// are never dirty. This is the boolean the navigate-away warning consumes.
func (m *Manager) Dirty() bool {
	return m.Mode() == ModeExistingPage && m.body != m.originalBody
}

// MarkSaved re-baselines the original body after a successful save of an
// existing page, resetting the dirty flag without rebuilding the session.
func (m *Manager) MarkSaved() {
	if m.Mode() == ModeExistingPage {
		m.originalBody = m.body
	}
}

// SetBodyChangeNotifier registers the preview consumer. It is handed the
// latest body on every SetBody, whatever the mode.
func (m *Manager) SetBodyChangeNotifier(notifier func(body string)) {
	m.onBodyChange = notifier
}

func (m *Manager) Pkg() model.PackageRef {
	return m.pkg
}

func (m *Manager) State() View {
	return View{
		ID:    m.id,
		Title: m.title,
		Body:  m.body,
	}
}
