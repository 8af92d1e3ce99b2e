// Package config loads the server configuration: a yaml file over built-in
// defaults, then FIGUREBUILDER_* environment variables over both.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"figurebuilder.app/internal/figure"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	Listen     string `yaml:"listen" env:"FIGUREBUILDER_LISTEN"`
	CatalogDir string `yaml:"catalog_dir" env:"FIGUREBUILDER_CATALOG_DIR"`

	Metadata Metadata `yaml:"metadata" envPrefix:"FIGUREBUILDER_METADATA_"`

	// Imager is a built-in endpoint name (nitro, habbo) or a base URL ending in
	// the figure parameter.
	Imager   string       `yaml:"imager" env:"FIGUREBUILDER_IMAGER"`
	Links    figure.Links `yaml:"links" envPrefix:"FIGUREBUILDER_LINKS_"`
	PageSize int          `yaml:"page_size" env:"FIGUREBUILDER_PAGE_SIZE"`

	WS WS `yaml:"ws" envPrefix:"FIGUREBUILDER_WS_"`

	// EventLogDir enables the hourly editor request log when set.
	EventLogDir string `yaml:"event_log_dir" env:"FIGUREBUILDER_EVENT_LOG_DIR"`

	EnablePprof bool `yaml:"enable_pprof" env:"FIGUREBUILDER_ENABLE_PPROF"`
}

type Metadata struct {
	Backend string `yaml:"backend" env:"BACKEND"`
	// Path is the JSON document (optionally .zst) for the json backend and
	// the import source for the sqlite backend.
	Path       string `yaml:"path" env:"PATH"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH"`
}

type WS struct {
	ReadBufferSize  int      `yaml:"read_buffer_size" env:"READ_BUFFER_SIZE"`
	WriteBufferSize int      `yaml:"write_buffer_size" env:"WRITE_BUFFER_SIZE"`
	MaxQueue        int      `yaml:"max_queue" env:"MAX_QUEUE"`
	MaxMessageBytes int64    `yaml:"max_message_bytes" env:"MAX_MESSAGE_BYTES"`
	AllowedOrigins  []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads path (skipped when empty) and applies the environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("server.yaml: %w", err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("server.yaml: %w", err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Listen:     ":8080",
		CatalogDir: "./configs",
		Metadata: Metadata{
			Backend: BackendJSON,
			Path:    "./configs/metadata.json",
		},
		Imager:   figure.Nitro.Name,
		Links:    figure.DefaultLinks(),
		PageSize: 16,
		WS: WS{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			MaxQueue:        16,
			MaxMessageBytes: 64 * 1024,
		},
	}
}

func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	c.CatalogDir = strings.TrimSpace(c.CatalogDir)
	c.Imager = strings.TrimSpace(c.Imager)
	c.EventLogDir = strings.TrimSpace(c.EventLogDir)
	c.Metadata.Backend = strings.ToLower(strings.TrimSpace(c.Metadata.Backend))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = BackendJSON
	}
	if c.WS.MaxQueue > 256 {
		c.WS.MaxQueue = 256
	}
	origins := c.WS.AllowedOrigins[:0]
	for _, o := range c.WS.AllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.WS.AllowedOrigins = origins
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen must not be empty")
	}
	if c.CatalogDir == "" {
		return fmt.Errorf("catalog_dir must not be empty")
	}
	switch c.Metadata.Backend {
	case BackendJSON:
		if strings.TrimSpace(c.Metadata.Path) == "" {
			return fmt.Errorf("metadata.path must not be empty for the json backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.Metadata.SQLitePath) == "" {
			return fmt.Errorf("metadata.sqlite_path must not be empty for the sqlite backend")
		}
	default:
		return fmt.Errorf("metadata.backend %q must be %s or %s", c.Metadata.Backend, BackendJSON, BackendSQLite)
	}
	if _, err := c.ImagerEndpoint(); err != nil {
		return err
	}
	if c.Links.MarketplaceBase == "" || c.Links.Contract == "" || c.Links.TokenImageBase == "" {
		return fmt.Errorf("links must set marketplace_base, contract and token_image_base")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be > 0")
	}
	if c.WS.ReadBufferSize <= 0 || c.WS.WriteBufferSize <= 0 {
		return fmt.Errorf("ws buffer sizes must be > 0")
	}
	if c.WS.MaxQueue <= 0 {
		return fmt.Errorf("ws.max_queue must be > 0")
	}
	if c.WS.MaxMessageBytes <= 0 {
		return fmt.Errorf("ws.max_message_bytes must be > 0")
	}
	return nil
}

// ImagerEndpoint resolves Imager to a rendering endpoint.
func (c Config) ImagerEndpoint() (figure.Imager, error) {
	if im, ok := figure.ImagerByName(c.Imager); ok {
		return im, nil
	}
	u, err := url.Parse(c.Imager)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return figure.Imager{}, fmt.Errorf("imager %q is neither a known endpoint nor an http(s) url", c.Imager)
	}
	return figure.Imager{Name: "custom", Base: c.Imager}, nil
}
