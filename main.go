package main

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/config"
	"github.com/modvault/wikidraft/internal/db"
	"github.com/modvault/wikidraft/internal/draft"
	"github.com/modvault/wikidraft/internal/editor"
	"github.com/modvault/wikidraft/internal/logger"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/render"
	"github.com/modvault/wikidraft/internal/repository"
	"github.com/modvault/wikidraft/internal/routes"
	"github.com/modvault/wikidraft/internal/sse"
	"github.com/modvault/wikidraft/internal/theme"
	"github.com/modvault/wikidraft/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

var log zerolog.Logger

var clients = sse.NewSSEClients()

var pageRepository repository.PageRepository
var draftStore draft.Store
var editorHandler *editor.Handler

const configPath = "config.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file loaded")
	}

	if err := config.LoadConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	log = logger.New(cfg.Logging.Level)
	config.SetLogger(log)
	db.SetLogger(log)
	draft.SetLogger(log)
	repository.SetLogger(log)
	render.SetLogger(log)

	var database db.DB
	switch cfg.Storage.Backend {
	case "s3":
		pageRepository = repository.NewS3PageRepository(
			os.Getenv("S3_ACCESS_KEY_ID"),
			os.Getenv("S3_ACCESS_KEY_SECRET"),
			cfg.Storage.S3.Endpoint,
			cfg.Storage.S3.Region,
			cfg.Storage.S3.Bucket,
		)
	case "fs":
		pageRepository = repository.NewFSPageRepository(cfg.Storage.PagesPath)
	default:
		database = db.NewSQLite(cfg.Storage.SQLitePath)
		if err := database.InitDB(); err != nil {
			log.Fatal().Err(err).Msg(config.ErrInitializingPages)
		}
		pageRepository = repository.NewDBPageRepository(database)
	}

	// Drafts ride on sqlite whenever a database is open; otherwise they
	// stay in memory. Disabling the feature swaps in the no-op store.
	switch {
	case !cfg.Features.Drafts.Enabled:
		draftStore = draft.NewNoopStore()
	case cfg.Features.Drafts.Backend == "sqlite" && database == nil:
		draftDB := db.NewSQLite(cfg.Storage.SQLitePath)
		if err := draftDB.InitDB(); err != nil {
			log.Error().Err(err).Msg("Draft database unavailable, keeping drafts in memory")
			draftStore = draft.NewMemoryStore()
		} else {
			draftStore = draft.NewSQLiteStore(draftDB)
		}
	case cfg.Features.Drafts.Backend == "sqlite":
		draftStore = draft.NewSQLiteStore(database)
	default:
		draftStore = draft.NewMemoryStore()
	}

	editorHandler = editor.NewHandler(pageRepository, draftStore, clients, &content, log)

	// Calculate the hash of static content
	static, _ := fs.Sub(content, config.StaticLocalDir)
	fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if !d.IsDir() {
			cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash([]byte(path)))
		}
		return nil
	})

	mux := http.NewServeMux()

	mux.HandleFunc(routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow:"))
	})

	mux.HandleFunc(routes.ThemeOppositeIcon, func(w http.ResponseWriter, r *http.Request) {
		currTheme := r.URL.Query().Get("theme")
		if currTheme == "" {
			http.Error(w, "theme required", http.StatusBadRequest)
			return
		}

		w.Header().Set(config.HCType, config.CTypeHTML)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(theme.GetThemeIcon(currTheme)))
	})

	mux.HandleFunc(routes.PartialsPage, func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("page")
		if id == "" {
			http.NotFound(w, r)
			return
		}

		page, err := pageRepository.ReadPage(model.PageID(id))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		htmlContent, _ := render.RenderMarkdownCached(page.Markdown, page.MDContentHash, theme.GetSyntaxThemeFromRequest(r))

		w.Header().Set(config.HCType, config.CTypeHTML)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf("<title>%s</title>\n%s", page.GetTitle(), htmlContent)))
	})

	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))
	mux.HandleFunc(config.WikiUrlPath, serveWikiPage)
	mux.HandleFunc(routes.ThemeToggle, serveThemePostToggle)
	mux.HandleFunc(routes.SyntaxThemeSet, serveSyntaxThemePostSet)
	mux.HandleFunc(routes.SyntaxThemeGet, serveSyntaxThemeGetTheme)
	mux.HandleFunc(routes.SSEPath, eventsHandler)
	mux.HandleFunc(routes.RootPath, serveIndex)

	if cfg.Features.Editor.Enabled {
		mux.HandleFunc(routes.NewWikiPage, func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{
				Name:  config.CookieEditorSession,
				Value: "",
				Path:  "/",
			})
			target := routes.NewWikiPageEdit + "?package=" + r.URL.Query().Get("package")
			w.Header().Add(config.HHxRedirect, target)
			http.Redirect(w, r, target, http.StatusFound)
		})
		mux.HandleFunc(routes.NewWikiPageEdit, editorHandler.ServeNewPageEditor)
		mux.HandleFunc(routes.EditWikiPage, serveEditWikiPage)
		mux.HandleFunc(routes.PartialsWikiPreview, editorHandler.HandlePreview)
		mux.HandleFunc(routes.DiscardDraft, editorHandler.HandleDiscard)

		mux.HandleFunc(routes.APIPages, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
				return
			}
			editorHandler.HandleCreatePage(w, r)
		})
		mux.HandleFunc(routes.APIPagesByID, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
				return
			}
			editorHandler.HandleUpdatePage(w, r)
		})
	}

	pageRepository.SetReloadNotifier(handleReloadPage)
	go pageRepository.Init()

	watcher := config.NewWatcher(configPath, func(c *config.Config) {
		log.Info().Str("level", c.Logging.Level).Msg("Applying reloaded config")
	})
	go func() {
		if err := watcher.Watch(context.Background()); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("Config watcher stopped")
		}
	}()

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath { // Ignore robots.txt
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("Starting server")
	if err := http.ListenAndServe(addr, cacheIt(securedMux)); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func serveEditWikiPage(w http.ResponseWriter, r *http.Request) {
	pageID := strings.TrimPrefix(r.URL.Path, routes.EditWikiPage)
	if pageID == "" {
		http.NotFound(w, r)
		return
	}

	page, err := pageRepository.ReadPage(model.PageID(pageID))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	editorHandler.ServeEditPageEditor(w, r, page)
}

func cacheIt(h http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
		}

		h.ServeHTTP(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}

// serveIndex lists wiki pages, newest first. A package query parameter
// narrows the list to one package and links to its new-page editor.
func serveIndex(w http.ResponseWriter, r *http.Request) {
	var pages []model.WikiPage
	var pkgFilter string
	if pkg, ok := model.ParsePackageRef(r.URL.Query().Get("package")); ok {
		pages = pageRepository.GetPagesForPackage(pkg)
		pkgFilter = pkg.String()
	} else {
		pages = pageRepository.GetPageList()
	}
	if max := config.AppConfig.Content.PagesPerIndex; len(pages) > max {
		pages = pages[:max]
	}

	tmpl, err := template.ParseFS(content, config.TemplatesLocalDir+"/"+config.TemplateLayout, config.TemplatesLocalDir+"/"+config.TemplateIndex)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := struct {
		*model.PageData
		WikiPath    string
		NewPagePath string
		Pkg         string
		Pages       []model.WikiPage
	}{
		PageData:    model.NewPageData(r),
		WikiPath:    config.WikiUrlPath,
		NewPagePath: routes.NewWikiPage,
		Pkg:         pkgFilter,
		Pages:       pages,
	}

	w.Header().Set(config.HETag, util.ContentHash([]byte(data.Theme+data.SyntaxTheme)))

	err = tmpl.ExecuteTemplate(w, config.TemplateLayout, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func serveWikiPage(w http.ResponseWriter, r *http.Request) {
	pageID := strings.TrimPrefix(r.URL.Path, config.WikiUrlPath)
	if pageID == "" {
		http.NotFound(w, r)
		return
	}

	page, err := pageRepository.ReadPage(model.PageID(pageID))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	htmlContent, info := render.RenderMarkdownCached(page.Markdown, page.MDContentHash, theme.GetSyntaxThemeFromRequest(r))
	page.Content = template.HTML(htmlContent)
	if info != nil && info.Title != "" && page.Title == "" {
		page.Title = info.Title
	}

	data := struct {
		*model.PageData
		Page *model.WikiPage
	}{
		PageData: model.NewPageData(r),
		Page:     page,
	}

	tmpl, err := template.ParseFS(content, config.TemplatesLocalDir+"/"+config.TemplateLayout, config.TemplatesLocalDir+"/"+config.TemplatePage)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	err = tmpl.ExecuteTemplate(w, config.TemplateLayout, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func serveThemePostToggle(w http.ResponseWriter, r *http.Request) {
	currentTheme := theme.GetThemeFromRequest(r)

	newTheme := config.DefaultTheme
	if currentTheme == config.DarkTheme {
		newTheme = config.LightTheme
	}

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := theme.GetDefaultSyntaxTheme(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil {
		syntaxTheme = cookie.Value
	}

	w.Header().Set(config.HHxTrigger, fmt.Sprintf(`{"themeChanged":{"value":"%s","syntaxTheme":"%s"}}`, newTheme, syntaxTheme))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(theme.GetThemeIcon(newTheme)))
}

func serveSyntaxThemePostSet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	currTheme := r.FormValue("syntax-theme-select")
	if currTheme == "" {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    currTheme,
		Path:     "/",
		HttpOnly: true,
	})

	themeStyle := []byte(theme.GenerateSyntaxCSS(currTheme))
	w.WriteHeader(http.StatusOK)
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.Write(themeStyle)
}

func serveSyntaxThemeGetTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, config.HTTPErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}

	currTheme := r.PathValue("theme")

	themeStyle := []byte(theme.GenerateSyntaxCSS(currTheme))
	w.WriteHeader(http.StatusOK)
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(themeStyle))
	w.Write(themeStyle)
}

func eventsHandler(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		http.Error(w, "Page parameter required", http.StatusBadRequest)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Del("X-Content-Type-Options")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	client := &sse.Client{
		Msg:    make(chan string),
		PageID: model.PageID(pageID),
	}

	clients.Add(client)

	log.Debug().Str("page_id", pageID).Msg("New SSE client connected")

	defer func() {
		clients.Delete(client)
		log.Debug().Str("page_id", pageID).Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

func handleReloadPage(pageID model.PageID) {
	go clients.Broadcast(pageID, "reload")
}
