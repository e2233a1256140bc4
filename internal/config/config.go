package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

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
	Storage  StorageConfig  `yaml:"storage"`
	Editor   EditorConfig   `yaml:"editor"`
	Services ServicesConfig `yaml:"services"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Inkpad"`
	Description string `yaml:"description" default:"A block editor for blog posts"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
}

type StorageConfig struct {
	// Backend is either "sqlite" or "memory".
	Backend  string `yaml:"backend" default:"sqlite"`
	Path     string `yaml:"path" default:"./inkpad.db"`
	PostsKey string `yaml:"posts_key" default:"blog_posts_v1"`
	Compress bool   `yaml:"compress" default:"true"`
}

type EditorConfig struct {
	AutosaveDelayMs  int    `yaml:"autosave_delay_ms" default:"1000"`
	ToolbarOffsetPx  int    `yaml:"toolbar_offset_px" default:"50"`
	TrustHTMLBlocks  bool   `yaml:"trust_html_blocks" default:"false"`
	SyntaxTheme      string `yaml:"syntax_theme" default:"gruvbox"`
	SessionIdleHours int    `yaml:"session_idle_hours" default:"12"`
}

type ServicesConfig struct {
	PhotosBaseURL        string `yaml:"photos_base_url" default:"https://picsum.photos"`
	PhotosPageSize       int    `yaml:"photos_page_size" default:"30"`
	PhotosTimeoutMs      int    `yaml:"photos_timeout_ms" default:"5000"`
	LinkPreviewTimeoutMs int    `yaml:"link_preview_timeout_ms" default:"5000"`
	LinkPreviewCacheMins int    `yaml:"link_preview_cache_mins" default:"30"`
	RetryMax             int    `yaml:"retry_max" default:"2"`
}

type UploadsConfig struct {
	// Backend is either "memory" (session-scoped blob references) or "s3".
	Backend         string `yaml:"backend" default:"memory"`
	Bucket          string `yaml:"bucket" default:""`
	Endpoint        string `yaml:"endpoint" default:""`
	PublicBaseURL   string `yaml:"public_base_url" default:""`
	AccessKeyID     string `yaml:"access_key_id" default:""`
	AccessKeySecret string `yaml:"access_key_secret" default:""`
	MaxSizeBytes    int    `yaml:"max_size_bytes" default:"10485760"`
}

func (e EditorConfig) AutosaveDelay() time.Duration {
	return time.Duration(e.AutosaveDelayMs) * time.Millisecond
}

func (e EditorConfig) SessionIdle() time.Duration {
	return time.Duration(e.SessionIdleHours) * time.Hour
}

func (s ServicesConfig) LinkPreviewTimeout() time.Duration {
	return time.Duration(s.LinkPreviewTimeoutMs) * time.Millisecond
}

func (s ServicesConfig) PhotosTimeout() time.Duration {
	return time.Duration(s.PhotosTimeoutMs) * time.Millisecond
}

func (s ServicesConfig) LinkPreviewCacheTTL() time.Duration {
	return time.Duration(s.LinkPreviewCacheMins) * time.Minute
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

	if err := config.validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	switch c.Uploads.Backend {
	case "memory":
	case "s3":
		if c.Uploads.Bucket == "" {
			return fmt.Errorf("uploads.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unsupported uploads backend %q", c.Uploads.Backend)
	}
	if c.Editor.AutosaveDelayMs <= 0 {
		return fmt.Errorf("editor.autosave_delay_ms must be positive, got %d", c.Editor.AutosaveDelayMs)
	}
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
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
