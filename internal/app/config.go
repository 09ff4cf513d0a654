package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/hyperdocs/hyperdocs/internal/cache"
	"github.com/hyperdocs/hyperdocs/internal/fetcher"
	"github.com/hyperdocs/hyperdocs/internal/notify"
	"github.com/hyperdocs/hyperdocs/internal/source"
	"github.com/hyperdocs/hyperdocs/internal/toc"
	"github.com/hyperdocs/hyperdocs/internal/webclient"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HYPERDOCS_"

// Config is the runtime configuration of the whole service.
type Config struct {
	LogLevel string `yaml:"log_level"`

	// StorageRoot is the directory holding registry.db.
	StorageRoot string `yaml:"storage_root"`

	Server    ServerConfig     `yaml:"server"`
	Pipeline  PipelineConfig   `yaml:"pipeline"`
	Source    source.Config    `yaml:"source"`
	WebClient webclient.Config `yaml:"webclient"`
	Notify    notify.Config    `yaml:"notify"`
	Cache     cache.Config     `yaml:"cache"`
	Warmer    fetcher.Config   `yaml:"warmer"`
	TOC       toc.Options      `yaml:"toc"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// AdminToken guards the dashboard API. Empty disables the API.
	AdminToken string `yaml:"admin_token"`
	// AllowedOrigin is sent as Access-Control-Allow-Origin.
	AllowedOrigin string `yaml:"allowed_origin"`
}

// PipelineConfig holds page assembly policy.
type PipelineConfig struct {
	// HomeFallback serves the first sidebar entry when the index file
	// cannot be read.
	HomeFallback bool `yaml:"home_fallback"`
	// NotifyNotFound also reports docs pages whose file does not exist in
	// the repository.
	NotifyNotFound bool `yaml:"notify_not_found"`

	DocsRevalidate  time.Duration `yaml:"docs_revalidate"`
	IndexRevalidate time.Duration `yaml:"index_revalidate"`
	BlogRevalidate  time.Duration `yaml:"blog_revalidate"`
	HomeRevalidate  time.Duration `yaml:"home_revalidate"`

	// NotifyTimeout bounds a single operator notification.
	NotifyTimeout time.Duration `yaml:"notify_timeout"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		StorageRoot: "~/.config/hyperdocs",
		Server: ServerConfig{
			ListenAddr:    ":8080",
			AllowedOrigin: "*",
		},
		Pipeline: PipelineConfig{
			HomeFallback:    true,
			DocsRevalidate:  10 * time.Second,
			IndexRevalidate: 15 * time.Minute,
			BlogRevalidate:  time.Hour,
			HomeRevalidate:  15 * time.Minute,
			NotifyTimeout:   10 * time.Second,
		},
		Source: source.DefaultConfig(),
		WebClient: webclient.Config{
			Client:  webclient.ClientNetHTTP,
			Timeout: webclient.DefaultTimeout,
		},
		Notify: notify.DefaultConfig(),
		Cache:  cache.DefaultConfig(),
		Warmer: fetcher.DefaultConfig(),
		TOC:    toc.DefaultOptions(),
	}
}

// LoadConfig reads the YAML file at path (optional) over DefaultConfig and
// then applies HYPERDOCS_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cfg.decode(raw); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) decode(raw []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("STORAGE_ROOT", &c.StorageRoot)
	str("LISTEN_ADDR", &c.Server.ListenAddr)
	str("ADMIN_TOKEN", &c.Server.AdminToken)
	str("ALLOWED_ORIGIN", &c.Server.AllowedOrigin)
	str("SOURCE_API_BASE_URL", &c.Source.APIBaseURL)
	str("SOURCE_BRANCH", &c.Source.Branch)
	str("SOURCE_LOCAL_ROOT", &c.Source.LocalRoot)
	str("WEB3FORMS_ACCESS_KEY", &c.Notify.Web3Forms.AccessKey)
	str("NATS_URL", &c.Notify.NATS.URL)
	str("NATS_SUBJECT", &c.Notify.NATS.Subject)

	if v, ok := lookup(EnvPrefix + "SOURCE_BACKEND"); ok {
		c.Source.Backend = source.Backend(v)
	}
	if v, ok := lookup(EnvPrefix + "HOME_FALLBACK"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sHOME_FALLBACK: %w", EnvPrefix, err)
		}
		c.Pipeline.HomeFallback = b
	}
	if v, ok := lookup(EnvPrefix + "FETCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sFETCH_TIMEOUT: %w", EnvPrefix, err)
		}
		c.WebClient.Timeout = d
	}
	return nil
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	backends := make([]any, 0)
	for _, b := range source.Backends() {
		backends = append(backends, source.Backend(b))
	}
	return validation.Errors{
		"log_level":     validation.Validate(c.LogLevel, validation.In("debug", "info", "warn", "error")),
		"server":        validation.Validate(c.Server.ListenAddr, validation.Required),
		"source":        validation.Validate(c.Source.Backend, validation.Required, validation.In(backends...)),
		"pipeline":      c.Pipeline.validate(),
		"webclient":     c.WebClient.Validate(),
		"toc.max_depth": validation.Validate(c.TOC.MaxDepth, validation.Min(c.TOC.MinDepth), validation.Max(6)),
	}.Filter()
}

func (p PipelineConfig) validate() error {
	positive := []validation.Rule{validation.Required, validation.Min(time.Second)}
	return validation.ValidateStruct(&p,
		validation.Field(&p.DocsRevalidate, positive...),
		validation.Field(&p.IndexRevalidate, positive...),
		validation.Field(&p.BlogRevalidate, positive...),
		validation.Field(&p.HomeRevalidate, positive...),
		validation.Field(&p.NotifyTimeout, positive...),
	)
}
