package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the API server configuration, loadable from environment
// variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	Locales   []string `usage:"Locales matched against Accept-Language (e.g. en,de,fr)"`
	Upstream  UpstreamConfig
	RateLimit RateLimitConfig
	Graceful  GracefulConfig
}

// UpstreamConfig points at the storefront GraphQL API.
type UpstreamConfig struct {
	Endpoint    string        `usage:"Storefront GraphQL endpoint URL" flag:"endpoint"`
	Token       string        `usage:"Storefront API bearer token" flag:"token"`
	Locale      string        `usage:"Default locale for product lookups" flag:"locale"`
	ApplyLocale bool          `default:"true" usage:"Overlay localized metafields onto products" flag:"apply-locale"`
	Timeout     time.Duration `default:"10s" usage:"Per-request upstream timeout" flag:"timeout"`
	MaxRetries  int           `default:"3" usage:"Retries for throttled or transient upstream failures" flag:"max-retries"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client (0 disables)"`
	Burst int     `default:"40" usage:"Burst size per client"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads the server configuration from environment variables,
// flags and YAML config files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := load(&cfg, false); err != nil {
		return nil, err
	}
	cfg.applyPlatformDefaults()
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadUpstreamConfig loads only the upstream section, ignoring flags. It
// lets other binaries share the server's environment and config files.
func LoadUpstreamConfig() (*UpstreamConfig, error) {
	var cfg struct {
		Upstream UpstreamConfig
	}
	if err := load(&cfg, true); err != nil {
		return nil, err
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg.Upstream, nil
}

func load(dst any, skipFlags bool) error {
	loader := aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix:          "STOREFRONT",
		SkipFlags:          skipFlags,
		AllowUnknownFields: true,
		AllowUnknownEnvs:   skipFlags,
		Files:              []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}

func (c *UpstreamConfig) validate() error {
	if c.Endpoint == "" {
		return errors.New("storefront endpoint is required: set STOREFRONT_UPSTREAM_ENDPOINT")
	}
	return nil
}

// applyPlatformDefaults honours a platform-provided PORT when the listen
// address was left at its default.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
