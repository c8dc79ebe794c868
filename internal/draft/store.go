// Package draft persists unsaved new-page bodies so they survive restarts
// of the editing surface.
package draft

import (
	"errors"

	"github.com/rs/zerolog"
)

// NewPageBodyKey is the fixed key for the single outstanding new-page
// draft. The store is shared process-wide: two concurrent new-page
// sessions would clobber each other's draft. That is a deliberate
// simplification, not something implementations should paper over.
const NewPageBodyKey = "wiki:new-page:body"

// DefaultBody is the placeholder content of a brand-new page when
// neither a stored draft nor caller-supplied content exists.
const DefaultBody = "# New page\n\nUse this page to document your package!"

// ErrNoDraft is returned by Get when no draft exists under the key.
var ErrNoDraft = errors.New("draft not found")

// Store is the persistent key-value primitive backing new-page drafts.
// All access is best-effort from the caller's point of view: the edit
// session treats every error as "no draft" or "write lost" and carries on.
//
// Remove is idempotent; removing an absent key is not an error.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

var storeLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	storeLogger = l
}
