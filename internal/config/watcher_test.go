package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("site:\n  name: Initial\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	watcher := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		watcher.Watch(ctx)
		close(done)
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(path, []byte("site:\n  name: Updated\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	select {
	case c := <-reloaded:
		if c.Site.Name != "Updated" {
			t.Errorf("Expected reloaded site name 'Updated', got %q", c.Site.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a reload callback after the config file changed")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected watcher to stop after context cancellation")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.ErrorLevel)
	SetLogger(logger)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("site:\n  name: Initial\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	watcher := NewWatcher(path, func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Watch(ctx)

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("noise"), 0644); err != nil {
		t.Fatalf("Failed to write unrelated file: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("Expected no reload for unrelated file changes")
	case <-time.After(700 * time.Millisecond):
	}
}
