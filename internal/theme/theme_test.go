package theme

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/modvault/wikidraft/internal/config"
)

func TestMain(m *testing.M) {
	config.ApplyDefaults(initConfig())
	os.Exit(m.Run())
}

func initConfig() *config.Config {
	cfg := &config.Config{}
	config.AppConfig = cfg
	return cfg
}

func TestGetThemeFromRequest(t *testing.T) {
	t.Run("Cookie set", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: config.CookieTheme, Value: config.LightTheme})

		if got := GetThemeFromRequest(r); got != config.LightTheme {
			t.Errorf("Expected %q, got %q", config.LightTheme, got)
		}
	})

	t.Run("No cookie falls back to config default", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		if got := GetThemeFromRequest(r); got != config.AppConfig.Theme.Default {
			t.Errorf("Expected %q, got %q", config.AppConfig.Theme.Default, got)
		}
	})
}

func TestGetDefaultSyntaxTheme(t *testing.T) {
	if got := GetDefaultSyntaxTheme(config.DarkTheme); got != config.AppConfig.Theme.SyntaxHighlighting.DefaultDark {
		t.Errorf("Expected dark default %q, got %q", config.AppConfig.Theme.SyntaxHighlighting.DefaultDark, got)
	}
	if got := GetDefaultSyntaxTheme(config.LightTheme); got != config.AppConfig.Theme.SyntaxHighlighting.DefaultLight {
		t.Errorf("Expected light default %q, got %q", config.AppConfig.Theme.SyntaxHighlighting.DefaultLight, got)
	}
}

func TestGetSyntaxThemeFromRequest(t *testing.T) {
	t.Run("Cookie wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: config.CookieSyntaxTheme, Value: "monokai"})

		if got := GetSyntaxThemeFromRequest(r); got != "monokai" {
			t.Errorf("Expected 'monokai', got %q", got)
		}
	})

	t.Run("Falls back to theme default", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: config.CookieTheme, Value: config.DarkTheme})

		want := config.AppConfig.Theme.SyntaxHighlighting.DefaultDark
		if got := GetSyntaxThemeFromRequest(r); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})
}

func TestGetSyntaxThemes(t *testing.T) {
	themes := GetSyntaxThemes()
	if len(themes) == 0 {
		t.Fatal("Expected at least one syntax theme")
	}

	for i := 1; i < len(themes); i++ {
		if themes[i-1] > themes[i] {
			t.Fatalf("Expected sorted theme names, %q before %q", themes[i-1], themes[i])
		}
	}
}

func TestGenerateSyntaxCSS(t *testing.T) {
	css := GenerateSyntaxCSS("gruvbox")
	if !strings.Contains(string(css), ".chroma") {
		t.Error("Expected generated CSS to contain chroma classes")
	}

	// Second call should come from the cache and match
	if again := GenerateSyntaxCSS("gruvbox"); again != css {
		t.Error("Expected identical CSS on second generation")
	}
}

func TestGetThemeIcon(t *testing.T) {
	if GetThemeIcon(config.LightTheme) != config.DarkThemeIcon {
		t.Error("Light theme should show the dark theme icon")
	}
	if GetThemeIcon(config.DarkTheme) != config.LightThemeIcon {
		t.Error("Dark theme should show the light theme icon")
	}
}
