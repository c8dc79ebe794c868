package config

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// TestConfigDefaultsGoldenFile tests that our defaults match the golden file
func TestConfigDefaultsGoldenFile(t *testing.T) {
	// Set up logger for testing
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	// Load the golden defaults file
	goldenData, err := os.ReadFile("testdata/defaults.yaml")
	if err != nil {
		t.Fatalf("Failed to read golden defaults file: %v", err)
	}

	// Parse golden config
	var goldenConfig Config
	if err := yaml.Unmarshal(goldenData, &goldenConfig); err != nil {
		t.Fatalf("Failed to parse golden config: %v", err)
	}

	// Create a new config with defaults applied
	testConfig := &Config{}
	ApplyDefaults(testConfig)

	// Compare key fields
	if testConfig.Site.Name != goldenConfig.Site.Name {
		t.Errorf("Site.Name mismatch: got %q, want %q", testConfig.Site.Name, goldenConfig.Site.Name)
	}
	if testConfig.Server.Port != goldenConfig.Server.Port {
		t.Errorf("Server.Port mismatch: got %q, want %q", testConfig.Server.Port, goldenConfig.Server.Port)
	}
	if testConfig.Theme.Default != goldenConfig.Theme.Default {
		t.Errorf("Theme.Default mismatch: got %q, want %q", testConfig.Theme.Default, goldenConfig.Theme.Default)
	}
	if testConfig.Features.Drafts.Enabled != goldenConfig.Features.Drafts.Enabled {
		t.Errorf("Features.Drafts.Enabled mismatch: got %v, want %v",
			testConfig.Features.Drafts.Enabled, goldenConfig.Features.Drafts.Enabled)
	}
	if testConfig.Features.Drafts.Backend != goldenConfig.Features.Drafts.Backend {
		t.Errorf("Features.Drafts.Backend mismatch: got %q, want %q",
			testConfig.Features.Drafts.Backend, goldenConfig.Features.Drafts.Backend)
	}
	if testConfig.Storage.Backend != goldenConfig.Storage.Backend {
		t.Errorf("Storage.Backend mismatch: got %q, want %q", testConfig.Storage.Backend, goldenConfig.Storage.Backend)
	}
	if testConfig.Logging.Level != goldenConfig.Logging.Level {
		t.Errorf("Logging.Level mismatch: got %q, want %q", testConfig.Logging.Level, goldenConfig.Logging.Level)
	}
}
