package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/util"
)

// FSPageRepository stores wiki pages as plain markdown files laid out as
// <root>/<namespace>/<name>/<page-id>.md.
type FSPageRepository struct { // implements PageRepository
	pagesPath string

	pagesCache *cache.Cache[string, *model.WikiPage]

	// sortedMu guards pagesCacheSorted: ReloadPages swaps it in from its
	// own goroutine while request handlers read it.
	sortedMu         sync.RWMutex
	pagesCacheSorted []model.WikiPage

	reloadNotifier func(model.PageID)
}

func NewFSPageRepository(pagesPath string) *FSPageRepository {
	return &FSPageRepository{
		pagesPath:  pagesPath,
		pagesCache: cache.NewCache[string, *model.WikiPage](),
	}
}

func (r *FSPageRepository) SetReloadNotifier(notifier func(model.PageID)) {
	r.reloadNotifier = notifier
}

func (r *FSPageRepository) notifyPageReload(pageID model.PageID) {
	if r.reloadNotifier != nil {
		r.reloadNotifier(pageID)
	}
}

func (r *FSPageRepository) Init() {
	pages, pageMap, err := r.GetPages()
	if err != nil {
		repoLogger.Fatal().Err(err).Msg("Error initializing wiki pages")
	}

	r.setPageList(pages)
	r.pagesCache.SetTo(pageMap)

	go r.ReloadPages()
}

func (r *FSPageRepository) setPageList(pages []model.WikiPage) {
	r.sortedMu.Lock()
	r.pagesCacheSorted = pages
	r.sortedMu.Unlock()
}

func (r *FSPageRepository) GetPageList() []model.WikiPage {
	r.sortedMu.RLock()
	defer r.sortedMu.RUnlock()
	return r.pagesCacheSorted
}

func (r *FSPageRepository) GetPagesForPackage(pkg model.PackageRef) []model.WikiPage {
	var pages []model.WikiPage
	for _, page := range r.GetPageList() {
		if page.Pkg == pkg {
			pages = append(pages, page)
		}
	}
	return pages
}

func (r *FSPageRepository) GetPages() ([]model.WikiPage, map[string]*model.WikiPage, error) {
	var pages []model.WikiPage
	pageMap := make(map[string]*model.WikiPage)

	err := filepath.WalkDir(r.pagesPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		rel, err := filepath.Rel(r.pagesPath, path)
		if err != nil {
			return err
		}

		// namespace/name/page-id.md
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			repoLogger.Warn().Str("path", rel).Msg("Skipping markdown file outside namespace/name layout")
			return nil
		}

		mdContent, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		fileInfo, err := d.Info()
		if err != nil {
			return err
		}

		page := model.WikiPage{
			ID:            model.PageID(strings.TrimSuffix(parts[2], ".md")),
			Pkg:           model.PackageRef{Namespace: parts[0], Name: parts[1]},
			Markdown:      mdContent,
			MDContentHash: util.ContentHash(mdContent),
			ModifiedDate:  fileInfo.ModTime(),
		}

		if fm, err := util.GetFrontMatter(mdContent); err == nil && fm.Title != "" {
			page.Title = fm.Title
		} else {
			page.Title = string(page.ID)
		}

		pages = append(pages, page)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return pages, pageMap, nil
		}
		return nil, nil, fmt.Errorf("error walking pages directory: %w", err)
	}

	slices.SortStableFunc(pages, func(a, b model.WikiPage) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	// Build the map after sorting so the pointers land in the slice's
	// final backing array.
	for i := range pages {
		pageMap[string(pages[i].ID)] = &pages[i]
	}

	return pages, pageMap, nil
}

func (r *FSPageRepository) ReadPage(id model.PageID) (*model.WikiPage, error) {
	page, ok := r.pagesCache.Get(string(id))
	if !ok {
		return nil, fmt.Errorf("wiki page not found: %s", id)
	}
	return page, nil
}

func (r *FSPageRepository) ReloadPages() {
	for {
		time.Sleep(10 * time.Second)

		pages, pageMap, err := r.GetPages()
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error reloading wiki pages")
			continue
		}

		current := r.GetPageList()
		cachedPages := make(map[string]*model.WikiPage)
		for i := range current {
			cachedPages[string(current[i].ID)] = &current[i]
		}

		hasChanges := len(pages) != len(current)
		for _, newPage := range pages {
			cached, exists := cachedPages[string(newPage.ID)]
			if !exists {
				hasChanges = true
				continue
			}
			if newPage.MDContentHash != cached.MDContentHash {
				hasChanges = true
				go r.notifyPageReload(newPage.ID)
			}
		}

		if hasChanges {
			r.setPageList(pages)
			r.pagesCache.SetTo(pageMap)
		}
	}
}

func (r *FSPageRepository) NewPage(pkg model.PackageRef) *model.WikiPage {
	now := time.Now().UTC()

	return &model.WikiPage{
		ID:  model.PageID(uuid.New().String()),
		Pkg: pkg,

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func (r *FSPageRepository) pagePath(page *model.WikiPage) string {
	return filepath.Join(r.pagesPath, page.Pkg.Namespace, page.Pkg.Name, string(page.ID)+".md")
}

func (r *FSPageRepository) SavePage(page *model.WikiPage) error {
	path := r.pagePath(page)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating page directory: %w", err)
	}

	page.MDContentHash = util.ContentHash(page.Markdown)
	if err := os.WriteFile(path, page.Markdown, 0o644); err != nil {
		return fmt.Errorf("error writing wiki page: %w", err)
	}
	return nil
}

func (r *FSPageRepository) SetPageContent(page *model.WikiPage) error {
	page.ModifiedDate = time.Now().UTC()
	return r.SavePage(page)
}
