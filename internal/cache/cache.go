// Package cache holds the in-process caches: a generic map cache used by
// the page repositories and the editor's session table, plus process-wide
// caches for rendered wiki pages and asset metadata.
package cache

import (
	"sync"

	"github.com/mmarkdown/mmark/v2/mast"
)

// Cache is a mutex-guarded map. Reads take the shared lock, so concurrent
// request handlers do not serialize on lookups.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

// SetTo swaps the whole map in one operation. The repositories use it to
// publish a freshly loaded page set atomically.
func (c *Cache[K, V]) SetTo(items map[K]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
}

// RenderedPage is a wiki page body rendered to HTML, together with the
// title data parsed from its front matter.
type RenderedPage struct {
	HTML  []byte
	Title *mast.TitleData
}

// Rendered pages are keyed by content hash plus syntax theme: the same
// page renders differently under each highlight theme.
var renderedPageCache = NewCache[string, *RenderedPage]()

func GetRenderedMarkdown(contentHash, syntaxTheme string) (*RenderedPage, bool) {
	return renderedPageCache.Get(contentHash + ":" + syntaxTheme)
}

func SetRenderedMarkdown(contentHash, syntaxTheme string, html []byte, title *mast.TitleData) {
	renderedPageCache.Set(contentHash+":"+syntaxTheme, &RenderedPage{
		HTML:  html,
		Title: title,
	})
}

func ClearRenderedMarkdownCache() {
	renderedPageCache.Clear()
}
