package repository

import (
	"github.com/rs/zerolog"

	"github.com/modvault/wikidraft/internal/model"
)

// PageRepository is the storage surface for wiki pages. Implementations
// keep an in-process cache refreshed in the background and notify the
// caller when a page's content changes.
type PageRepository interface {
	Init()
	GetPages() ([]model.WikiPage, map[string]*model.WikiPage, error)
	GetPageList() []model.WikiPage
	GetPagesForPackage(pkg model.PackageRef) []model.WikiPage
	ReadPage(id model.PageID) (*model.WikiPage, error)
	ReloadPages()

	NewPage(pkg model.PackageRef) *model.WikiPage
	SavePage(page *model.WikiPage) error
	SetPageContent(page *model.WikiPage) error

	// SetReloadNotifier sets a function that will be called when a page's content changes.
	SetReloadNotifier(notifier func(model.PageID))
}

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}
