// Package routes defines HTTP route constants for the application.
package routes

const (
	// Static and assets
	RobotsPath        = "/robots.txt"
	ThemeOppositeIcon = "/theme/opposite-icon"
	ThemeToggle       = "/theme/toggle"
	SyntaxThemeSet    = "/syntax-theme/set"
	SyntaxThemeGet    = "/syntax-theme/{theme}"

	// SSE
	SSEPath = "/sse"

	// Root
	RootPath = "/"

	// Wiki page views
	WikiPage     = "/wiki/"
	PartialsPage = "/partials/wiki/page"

	// Editor routes
	NewWikiPage         = "/wiki/new"
	NewWikiPageEdit     = "/wiki/new/edit"
	EditWikiPage        = "/wiki/edit/"
	PartialsWikiPreview = "/partials/wiki/preview"
	DiscardDraft        = "/wiki/new/discard"

	// API
	APIPages     = "/api/wiki/pages"
	APIPagesByID = "/api/wiki/pages/{id}"
)
