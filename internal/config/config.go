package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/libreq/internal/util"
)

var validate = validator.New()

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "libreq", "config.yml")
}

// Load reads the config from disk (or env). A missing file is fine: every key
// has a default that points at a local dev-server.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("LIBREQ_CONFIG"))
}

// LoadFile reads the config from path, or the default path when empty.
func LoadFile(path string) (*Config, error) {
	// .env is optional; it only seeds the environment.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LIBREQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	cfg.Scan.Source = ExpandHome(cfg.Scan.Source)
	cfg.Log.File = ExpandHome(cfg.Log.File)
	cfg.Dev.Fixtures = ExpandHome(cfg.Dev.Fixtures)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints declared on the schema.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the config to path (the default path when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toDocument(cfg)); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return util.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", "http://127.0.0.1:5000")
	v.SetDefault("server.timeout", 15*time.Second)
	v.SetDefault("form.order", OrderStudentFirst)
	v.SetDefault("form.mode", ModeQuantity)
	v.SetDefault("form.strict", false)
	v.SetDefault("form.collation", "ru")
	v.SetDefault("form.debounce.students", 200*time.Millisecond)
	v.SetDefault("form.debounce.books", 300*time.Millisecond)
	v.SetDefault("scan.interval", 300*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", defaultLogFile())
	v.SetDefault("dev.addr", "127.0.0.1:5000")
}

// toDocument maps the config to snake_case keys matching the mapstructure
// tags, so a saved file loads back unchanged.
func toDocument(cfg *Config) map[string]any {
	return map[string]any{
		"server": map[string]any{
			"base_url": cfg.Server.BaseURL,
			"timeout":  cfg.Server.Timeout.String(),
		},
		"form": map[string]any{
			"order":     cfg.Form.Order,
			"mode":      cfg.Form.Mode,
			"strict":    cfg.Form.Strict,
			"collation": cfg.Form.Collation,
			"debounce": map[string]any{
				"students": cfg.Form.Debounce.Students.String(),
				"books":    cfg.Form.Debounce.Books.String(),
			},
		},
		"scan": map[string]any{
			"interval": cfg.Scan.Interval.String(),
			"source":   cfg.Scan.Source,
		},
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
			"file":   cfg.Log.File,
		},
		"dev": map[string]any{
			"addr":     cfg.Dev.Addr,
			"fixtures": cfg.Dev.Fixtures,
		},
	}
}

func defaultLogFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "libreq", "libreq.log")
}
