package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Server   ServerConfig   `yaml:"server"`
	Theme    ThemeConfig    `yaml:"theme"`
	Content  ContentConfig  `yaml:"content"`
	Features FeaturesConfig `yaml:"features"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Wikidraft"`
	Description string `yaml:"description" default:"A package repository wiki"`
	Tagline     string `yaml:"tagline" default:"Mod documentation, by the people who make the mods"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12700"`
}

type ThemeConfig struct {
	Default            string       `yaml:"default" default:"dark-theme"`
	AllowSwitching     bool         `yaml:"allow_switching" default:"true"`
	SyntaxHighlighting SyntaxConfig `yaml:"syntax_highlighting"`
}

type SyntaxConfig struct {
	DefaultDark  string `yaml:"default_dark" default:"gruvbox"`
	DefaultLight string `yaml:"default_light" default:"catppuccin-latte"`
}

type ContentConfig struct {
	PagesPerIndex int `yaml:"pages_per_index" default:"50"`
}

type FeaturesConfig struct {
	Editor EditorConfig `yaml:"editor"`
	Drafts DraftsConfig `yaml:"drafts"`
	Search FeatureFlag  `yaml:"search"`
}

type EditorConfig struct {
	Enabled     bool `yaml:"enabled" default:"true"`
	LivePreview bool `yaml:"live_preview" default:"true"`
}

// DraftsConfig controls local persistence of new-page drafts.
// When disabled, the editor still works but drafts do not survive restarts.
type DraftsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Backend string `yaml:"backend" default:"sqlite"`
}

type FeatureFlag struct {
	Enabled bool `yaml:"enabled" default:"false"`
}

type StorageConfig struct {
	Backend    string   `yaml:"backend" default:"sqlite"`
	SQLitePath string   `yaml:"sqlite_path" default:"./wikidraft.db"`
	PagesPath  string   `yaml:"pages_path" default:"./pages"`
	S3         S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket   string `yaml:"bucket" default:""`
	Endpoint string `yaml:"endpoint" default:""`
	Region   string `yaml:"region" default:"auto"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	AppConfig = config
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
