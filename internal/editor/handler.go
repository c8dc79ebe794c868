// Package editor serves the wiki page editing surface: it owns the live
// edit sessions and bridges them to HTTP.
package editor

import (
	"embed"
	"net/http"
	"strconv"
	"text/template"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/config"
	"github.com/modvault/wikidraft/internal/draft"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/render"
	"github.com/modvault/wikidraft/internal/repository"
	"github.com/modvault/wikidraft/internal/session"
	"github.com/modvault/wikidraft/internal/sse"
	"github.com/modvault/wikidraft/internal/theme"
	"github.com/modvault/wikidraft/internal/util"
)

// Handler owns one session.Manager per editor-session cookie. Managers are
// created when an editor page is served and dropped after a successful save.
type Handler struct {
	repo    repository.PageRepository
	drafts  draft.Store
	clients *sse.SSEClients

	sessions *cache.Cache[string, *session.Manager]

	fs  *embed.FS
	log zerolog.Logger
}

func NewHandler(repo repository.PageRepository, drafts draft.Store, clients *sse.SSEClients, fs *embed.FS, log zerolog.Logger) *Handler {
	return &Handler{
		repo:    repo,
		drafts:  drafts,
		clients: clients,

		sessions: cache.NewCache[string, *session.Manager](),

		fs:  fs,
		log: log,
	}
}

// sessionID returns the editor session cookie value, minting one when absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieEditorSession); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieEditorSession,
		Value: id,
		Path:  "/",
	})
	return id
}

// Session returns the live manager for the request's editor session, if any.
func (h *Handler) Session(r *http.Request) (*session.Manager, bool) {
	cookie, err := r.Cookie(config.CookieEditorSession)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	return h.sessions.Get(cookie.Value)
}

func (h *Handler) dropSession(r *http.Request) {
	if cookie, err := r.Cookie(config.CookieEditorSession); err == nil {
		h.sessions.Delete(cookie.Value)
	}
}

// ServeNewPageEditor opens an editor in new-page mode. The session body is
// seeded from any persisted draft, so half-written pages come back after a
// reload or browser restart.
func (h *Handler) ServeNewPageEditor(w http.ResponseWriter, r *http.Request) {
	pkg, ok := model.ParsePackageRef(r.URL.Query().Get("package"))
	if !ok {
		http.Error(w, "package query parameter required as namespace/name", http.StatusBadRequest)
		return
	}

	id := h.sessionID(w, r)
	mgr, ok := h.sessions.Get(id)
	if !ok || mgr.Mode() != session.ModeNewPage || mgr.Pkg() != pkg {
		mgr = session.New(nil, pkg, h.drafts, h.log)
		h.sessions.Set(id, mgr)
	}

	h.serveEditor(w, r, mgr)
}

// ServeEditPageEditor opens an editor on an existing page. These sessions
// never touch the draft store; they only track divergence from the stored
// body for the unsaved-changes warning.
func (h *Handler) ServeEditPageEditor(w http.ResponseWriter, r *http.Request, page *model.WikiPage) {
	id := h.sessionID(w, r)
	mgr, ok := h.sessions.Get(id)
	if !ok || mgr.State().ID != page.ID {
		mgr = session.New(&session.Seed{
			ID:    page.ID,
			Title: page.Title,
			Body:  string(page.Markdown),
		}, page.Pkg, h.drafts, h.log)

		pageID := page.ID
		mgr.SetBodyChangeNotifier(func(string) {
			go h.clients.Broadcast(pageID, "preview")
		})

		h.sessions.Set(id, mgr)
	}

	h.serveEditor(w, r, mgr)
}

func (h *Handler) serveEditor(w http.ResponseWriter, r *http.Request, mgr *session.Manager) {
	tmpl, err := template.ParseFS(h.fs, config.TemplatesLocalDir+"/"+config.TemplateLayout, config.TemplatesLocalDir+"/"+config.TemplateEditor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	state := mgr.State()

	saveUrl := "/api/wiki/pages"
	saveMethod := http.MethodPost
	if mgr.Mode() == session.ModeExistingPage {
		saveUrl += "/" + string(state.ID)
		saveMethod = http.MethodPut
	}

	data := struct {
		*model.PageData
		Pkg          model.PackageRef
		Title        string
		Markdown     string
		Dirty        bool
		HxPostUrl    string
		HxSaveUrl    string
		HxSaveMethod string
	}{
		PageData:     model.NewPageData(r),
		Pkg:          mgr.Pkg(),
		Title:        state.Title,
		Markdown:     state.Body,
		Dirty:        mgr.Dirty(),
		HxPostUrl:    "/partials/wiki/preview",
		HxSaveUrl:    saveUrl,
		HxSaveMethod: saveMethod,
	}

	showToolbar := true
	data.IsEditorPage = &showToolbar
	data.ShowToolbar = &showToolbar

	w.Header().Set(config.HETag, util.ContentHash([]byte(data.Theme+data.SyntaxTheme)))
	err = tmpl.ExecuteTemplate(w, config.TemplateLayout, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HandlePreview receives every editor keystroke batch: it pushes the new
// body (and title) through the session manager, then renders the preview.
// The response carries the dirty flag so the client can arm or disarm its
// navigate-away warning on every update.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.Session(r)
	if !ok {
		http.Error(w, "No active editor session", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// An empty title field still counts as an edit; only skip the update
	// when the field was not sent at all.
	if _, ok := r.Form["title"]; ok {
		mgr.SetTitle(r.Form.Get("title"))
	}
	mgr.SetBody(r.Form.Get("content"))

	body := mgr.State().Body
	if body == "" {
		body = "Start typing in the editor to see a preview here."
	}

	htmlContent, _ := render.RenderMarkdown([]byte(body), theme.GetSyntaxThemeFromRequest(r))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.Header().Set(config.HUnsavedChanges, strconv.FormatBool(mgr.Dirty()))
	w.WriteHeader(http.StatusOK)
	w.Write(htmlContent)
}

// HandleDiscard throws away the live session, and for new-page sessions
// also the persisted draft, so the next new-page editor starts from the
// default body. Existing-page sessions only track divergence; discarding
// one must leave the shared new-page draft alone.
func (h *Handler) HandleDiscard(w http.ResponseWriter, r *http.Request) {
	if mgr, ok := h.Session(r); ok {
		if mgr.Mode() == session.ModeNewPage {
			mgr.ClearCache()
		}
	} else {
		// No live session; still drop any stored draft.
		if err := h.drafts.Remove(draft.NewPageBodyKey); err != nil {
			h.log.Debug().Err(err).Msg("Draft store remove failed")
		}
	}
	h.dropSession(r)

	w.Header().Add(config.HHxRedirect, "/")
	w.WriteHeader(http.StatusOK)
}

// HandleCreatePage saves the session as a brand-new wiki page. On success
// the cached draft is cleared so it cannot resurface in the next session.
func (h *Handler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.Session(r)
	if !ok {
		http.Error(w, "No active editor session", http.StatusBadRequest)
		return
	}

	if content := r.FormValue("content"); content != "" {
		mgr.SetBody(content)
	}
	if title := r.FormValue("title"); title != "" {
		mgr.SetTitle(title)
	}

	state := mgr.State()

	page := h.repo.NewPage(mgr.Pkg())
	page.Markdown = []byte(state.Body)
	page.Title = state.Title

	if page.Title == "" {
		if fm, err := util.GetFrontMatter(page.Markdown); err == nil && fm.Title != "" {
			page.Title = fm.Title
		} else {
			page.Title = "Untitled - " + page.CreatedDate.Format("2006-01-02")
		}
	}

	if err := h.repo.SavePage(page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	mgr.ClearCache()
	h.dropSession(r)

	h.log.Info().
		Str("page_id", string(page.ID)).
		Str("package", page.Pkg.String()).
		Msg("Wiki page created")

	w.Header().Add(config.HHxRedirect, config.WikiUrlPath+string(page.ID))
	w.WriteHeader(http.StatusCreated)
}

// HandleUpdatePage saves new content for an existing page, then re-baselines
// the session so the dirty flag resets without rebuilding the editor.
func (h *Handler) HandleUpdatePage(w http.ResponseWriter, r *http.Request) {
	pageID := model.PageID(r.PathValue("id"))

	page, err := h.repo.ReadPage(pageID)
	if err != nil {
		http.Error(w, "Wiki page not found", http.StatusNotFound)
		return
	}

	content := r.FormValue("content")
	_, titleSent := r.Form["title"]

	mgr, hasSession := h.Session(r)
	ownSession := hasSession && mgr.State().ID == pageID
	if ownSession {
		mgr.SetBody(content)
		if titleSent {
			// Pass the field through as sent; clearing the title field
			// clears the stored title.
			mgr.SetTitle(r.Form.Get("title"))
			page.Title = mgr.State().Title
		}
		page.Markdown = []byte(mgr.State().Body)
	} else {
		page.Markdown = []byte(content)
		if titleSent {
			page.Title = r.Form.Get("title")
		}
	}

	if fm, err := util.GetFrontMatter(page.Markdown); err == nil && fm.Title != "" && page.Title != fm.Title {
		page.Title = fm.Title
	}

	if err := h.repo.SetPageContent(page); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if ownSession {
		mgr.MarkSaved()
	}

	go h.clients.Broadcast(page.ID, "reload")

	w.WriteHeader(http.StatusOK)
}
