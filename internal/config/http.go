package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"
	HHxRedirect   = "Hx-Redirect"
	HHxTrigger    = "Hx-Trigger"

	// HUnsavedChanges carries the dirty flag to the client-side
	// navigate-away warning on every preview update.
	HUnsavedChanges = "X-Unsaved-Changes"

	CTypeCSS  = "text/css"
	CTypeHTML = "text/html"
)

const (
	HTTPErrMethodNotAllowed = "Method not allowed"
)

const (
	CookieTheme         = "theme"
	CookieSyntaxTheme   = "syntax-theme"
	CookieEditorSession = "editor-session"
)
