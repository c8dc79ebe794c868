// Package theme resolves the UI and syntax highlight themes for a request
// and generates the matching chroma stylesheets.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/modvault/wikidraft/internal/cache"
	"github.com/modvault/wikidraft/internal/config"
)

// GetThemeFromRequest reads the theme cookie, falling back to the
// configured default.
func GetThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieTheme); err == nil {
		return cookie.Value
	}
	return config.AppConfig.Theme.Default
}

func GetDefaultSyntaxTheme(theme string) string {
	if theme == config.LightTheme {
		return config.AppConfig.Theme.SyntaxHighlighting.DefaultLight
	}
	return config.AppConfig.Theme.SyntaxHighlighting.DefaultDark
}

// GetSyntaxThemeFromRequest prefers the explicit syntax theme cookie, then
// the default syntax theme paired with the active UI theme.
func GetSyntaxThemeFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil {
		return cookie.Value
	}
	return GetDefaultSyntaxTheme(GetThemeFromRequest(r))
}

func GetSyntaxThemes() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}

// GetFormatter builds the chroma HTML formatter used everywhere code is
// highlighted. Classes keep the markup small; the CSS comes from
// GenerateSyntaxCSS.
func GetFormatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

// GenerateSyntaxCSS renders the stylesheet for one syntax theme. Results
// are cached per theme for the life of the process.
func GenerateSyntaxCSS(theme string) template.CSS {
	if css, ok := cache.GetSyntaxCSS(theme); ok {
		return css
	}

	style := styles.Get(theme)

	var buf strings.Builder
	if bg := style.Get(chroma.Background); !bg.Colour.IsSet() {
		// Some chroma themes ship without a foreground color. Pick one
		// that reads against the theme's background luminance.
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	GetFormatter().WriteCSS(&buf, style)

	css := template.CSS(buf.String())
	cache.SetSyntaxCSS(theme, css)
	return css
}

// GetThemeIcon returns the icon for the toggle button, which shows the
// theme you would switch to rather than the active one.
func GetThemeIcon(theme string) string {
	if theme == config.LightTheme {
		return config.DarkThemeIcon
	}
	return config.LightThemeIcon
}
