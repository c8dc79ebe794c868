package repository

import (
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/db"
	"github.com/modvault/wikidraft/internal/model"
	"github.com/modvault/wikidraft/internal/util"
	"github.com/modvault/wikidraft/internal/util/compression"
)

type DBPageRepository struct { // implements PageRepository
	pagesCache *cache.Cache[string, *model.WikiPage]

	// sortedMu guards pagesCacheSorted: ReloadPages swaps it in from its
	// own goroutine while request handlers read it.
	sortedMu         sync.RWMutex
	pagesCacheSorted []model.WikiPage

	reloadNotifier   func(model.PageID)
	lastModifiedTime *time.Time // Track the latest modification time

	db         db.DB
	compressor compression.Compressor
}

func NewDBPageRepository(db db.DB) *DBPageRepository {
	return &DBPageRepository{
		pagesCache: cache.NewCache[string, *model.WikiPage](),

		db: db,

		compressor: compression.ZstdCompressor{},
	}
}

func (r *DBPageRepository) Init() {
	pages, pageMap, err := r.GetPages()
	if err != nil {
		repoLogger.Fatal().Err(err).Msg("Error initializing wiki pages")
	}

	r.setPageList(pages)
	r.pagesCache.SetTo(pageMap)

	go r.ReloadPages()
}

func (r *DBPageRepository) setPageList(pages []model.WikiPage) {
	r.sortedMu.Lock()
	r.pagesCacheSorted = pages
	r.sortedMu.Unlock()
}

func (r *DBPageRepository) GetLatestModifiedTime() (*time.Time, error) {
	var latestTimeStr sql.NullString
	row := r.db.Get().QueryRow(`SELECT MAX(modified_at) FROM wiki_pages`)
	err := row.Scan(&latestTimeStr)
	if err != nil {
		return nil, fmt.Errorf("error scanning latest modified time: %w", err)
	}

	if !latestTimeStr.Valid {
		return nil, nil // It was NULL, so no pages or no valid timestamps.
	}

	// The go-sqlite3 driver returns a string for MAX(), so we must parse it.
	// It can be in a format with a space separator.
	timeFormats := []string{
		"2006-01-02 15:04:05.999999999-07:00", // Space separator with timezone
		time.RFC3339Nano,                      // 'T' separator with timezone
		time.RFC3339,                          // 'T' separator, no nanos
	}

	var latestTime time.Time
	var parseErr error
	for _, format := range timeFormats {
		latestTime, parseErr = time.Parse(format, latestTimeStr.String)
		if parseErr == nil {
			return &latestTime, nil
		}
	}

	return nil, fmt.Errorf("error parsing latest modified time '%s' with any known format: %w", latestTimeStr.String, parseErr)
}

func (r *DBPageRepository) GetPages() ([]model.WikiPage, map[string]*model.WikiPage, error) {
	rows, err := r.db.Query(`SELECT id, namespace, name, title, content, md_content_hash, created_at, modified_at, user_id FROM wiki_pages`)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying wiki pages: %w", err)
	}
	defer rows.Close()

	pages := make([]model.WikiPage, 0)
	pageMap := make(map[string]*model.WikiPage)
	var latestModTime *time.Time

	for rows.Next() {
		var page model.WikiPage
		var compressed []byte

		err := rows.Scan(&page.ID, &page.Pkg.Namespace, &page.Pkg.Name, &page.Title, &compressed, &page.MDContentHash, &page.CreatedDate, &page.ModifiedDate, &page.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("error scanning wiki page: %w", err)
		}

		// Track the latest modification time
		if latestModTime == nil || page.ModifiedDate.After(*latestModTime) {
			latestModTime = &page.ModifiedDate
		}

		// Decompress the content
		content, err := r.compressor.Decompress(compressed)
		if err != nil {
			return nil, nil, fmt.Errorf("error decompressing content: %w", err)
		}
		page.Markdown = content

		pages = append(pages, page)
		pageMap[string(page.ID)] = &page
	}

	// Update our tracked modification time
	r.lastModifiedTime = latestModTime

	// Sort the pages by modification date
	slices.SortStableFunc(pages, func(a, b model.WikiPage) int {
		return -a.ModifiedDate.Compare(b.ModifiedDate)
	})

	return pages, pageMap, nil
}

func (r *DBPageRepository) GetPageList() []model.WikiPage {
	r.sortedMu.RLock()
	defer r.sortedMu.RUnlock()
	return r.pagesCacheSorted
}

func (r *DBPageRepository) GetPagesForPackage(pkg model.PackageRef) []model.WikiPage {
	var pages []model.WikiPage
	for _, page := range r.GetPageList() {
		if page.Pkg == pkg {
			pages = append(pages, page)
		}
	}
	return pages
}

func (r *DBPageRepository) ReadPage(id model.PageID) (*model.WikiPage, error) {
	page, ok := r.pagesCache.Get(string(id))
	if !ok {
		return nil, fmt.Errorf("wiki page not found: %s", id)
	}
	return page, nil
}

func (r *DBPageRepository) ReloadPages() {
	sleepFunc := func() {
		time.Sleep(10 * time.Second)
	}

	for {
		// First, do a lightweight check to see if anything has changed
		latestTime, err := r.GetLatestModifiedTime()
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error checking latest modification time")
			sleepFunc()
			continue
		}

		// If we have a cached time and nothing has changed, skip
		if r.lastModifiedTime != nil && latestTime != nil && !latestTime.After(*r.lastModifiedTime) {
			repoLogger.Debug().Msg("No wiki pages modified, skipping reload")
			sleepFunc()
			continue
		}

		repoLogger.Debug().Msg("Wiki pages may have changed, performing full reload")

		// Something changed, do the full reload
		pages, pageMap, err := r.GetPages()
		if err != nil {
			repoLogger.Error().Err(err).Msg("Error reloading wiki pages")
		} else {
			// Check if any pages have changed by comparing content hashes
			hasChanges := false

			// Create a map of current cached pages for quick lookup
			current := r.GetPageList()
			cachedPages := make(map[string]*model.WikiPage)
			for i := range current {
				cachedPages[string(current[i].ID)] = &current[i]
			}

			// Check for new or modified pages
			for _, newPage := range pages {
				if cachedPage, exists := cachedPages[string(newPage.ID)]; exists {
					// Compare content hashes to detect changes
					if newPage.MDContentHash != cachedPage.MDContentHash {
						hasChanges = true
						repoLogger.Info().
							Str("page_id", string(newPage.ID)).
							Str("package", newPage.Pkg.String()).
							Str("title", newPage.Title).
							Msg("Wiki page content changed, reloading")
						if r.reloadNotifier != nil {
							go r.reloadNotifier(newPage.ID)
						}
					}
				} else {
					// New page detected
					hasChanges = true
					repoLogger.Info().
						Str("page_id", string(newPage.ID)).
						Str("package", newPage.Pkg.String()).
						Str("title", newPage.Title).
						Msg("New wiki page detected")
				}
			}

			// Check for deleted pages
			if len(pages) != len(current) {
				hasChanges = true
				repoLogger.Info().Msg("Number of wiki pages changed")
			}

			if hasChanges {
				repoLogger.Info().Msg("Wiki pages have changed, updating cache")
				r.setPageList(pages)
				r.pagesCache.SetTo(pageMap)
			}
		}

		sleepFunc()
	}
}

func (r *DBPageRepository) SetReloadNotifier(notifier func(model.PageID)) {
	r.reloadNotifier = notifier
}

func (r *DBPageRepository) NewPage(pkg model.PackageRef) *model.WikiPage {
	now := time.Now().UTC()

	return &model.WikiPage{
		ID:  model.PageID(uuid.New().String()),
		Pkg: pkg,

		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func (r *DBPageRepository) SetPageContent(page *model.WikiPage) error {
	// Compress the content
	compressed, err := r.compressor.Compress(page.Markdown)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	// Calculate the content hash for the compressed content
	page.MDContentHash = util.ContentHash(compressed)
	page.ModifiedDate = time.Now().UTC()

	res, err := r.db.Exec(
		`UPDATE wiki_pages SET title = ?, content = ?, md_content_hash = ?, modified_at = ? WHERE id = ?`,
		page.Title, compressed, page.MDContentHash, page.ModifiedDate, page.ID,
	)
	if err != nil {
		return fmt.Errorf("error saving wiki page: %w", err)
	}

	repoLogger.Debug().Interface("result", res).Msg("Wiki page content set")

	return nil
}

func (r *DBPageRepository) SavePage(page *model.WikiPage) error {
	// Compress the content
	compressed, err := r.compressor.Compress(page.Markdown)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	// Calculate the content hash for the compressed content
	page.MDContentHash = util.ContentHash(compressed)

	res, err := r.db.Exec(
		`INSERT INTO wiki_pages (id, namespace, name, title, content, md_content_hash, created_at, modified_at, user_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		page.ID, page.Pkg.Namespace, page.Pkg.Name, page.Title, compressed, page.MDContentHash, page.CreatedDate, page.ModifiedDate, page.Owner,
	)
	if err != nil {
		return fmt.Errorf("error saving wiki page: %w", err)
	}

	repoLogger.Debug().Interface("result", res).Msg("Wiki page saved")

	return nil
}
