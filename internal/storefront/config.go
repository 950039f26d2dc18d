// Package storefront defines the configuration shared by storefront API
// operations: the transport used to execute GraphQL documents and the locale
// settings applied to results.
package storefront

import (
	"context"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Variables is a GraphQL variables object that encodes itself as JSON.
type Variables interface {
	Encode(e *jx.Encoder)
}

// VariablesFunc adapts an encoding function to the Variables interface.
type VariablesFunc func(e *jx.Encoder)

// Encode calls f(e).
func (f VariablesFunc) Encode(e *jx.Encoder) {
	f(e)
}

// Request is a single GraphQL document execution.
type Request struct {
	OperationName string
	Query         string
	Variables     Variables
}

// Response carries the raw "data" member of a GraphQL response. Data is nil
// when the server returned no data.
type Response struct {
	Data jx.Raw
}

// Fetcher executes GraphQL requests against the storefront API.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (*Response, error)

// Fetch calls f(ctx, req).
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// Config holds per-call settings for storefront operations.
type Config struct {
	// Fetcher executes GraphQL requests. Required.
	Fetcher Fetcher
	// Locale is the fallback locale used when a call does not supply one.
	Locale string
	// ApplyLocale enables locale metadata post-processing of results.
	ApplyLocale bool
}

// ConfigError reports that no usable configuration could be resolved.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "storefront config: " + e.Reason
}

// ErrNoConfig is returned by Resolve when neither a default configuration nor
// the supplied options provide a Fetcher.
var ErrNoConfig error = &ConfigError{Reason: "no fetcher configured"}

var defaultConfig atomic.Pointer[Config]

// SetDefault installs cfg as the process-wide default configuration. The value
// is copied; later changes to cfg are not observed. Passing nil clears it.
func SetDefault(cfg *Config) {
	if cfg == nil {
		defaultConfig.Store(nil)
		return
	}
	c := *cfg
	defaultConfig.Store(&c)
}

// Default returns a copy of the process-wide default configuration, or nil.
func Default() *Config {
	p := defaultConfig.Load()
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

// Option overrides a single field of the resolved configuration.
type Option func(*Config)

// WithFetcher overrides the transport.
func WithFetcher(f Fetcher) Option {
	return func(c *Config) { c.Fetcher = f }
}

// WithLocale overrides the fallback locale.
func WithLocale(locale string) Option {
	return func(c *Config) { c.Locale = locale }
}

// WithApplyLocale overrides locale post-processing.
func WithApplyLocale(apply bool) Option {
	return func(c *Config) { c.ApplyLocale = apply }
}

// WithConfig merges the non-zero fields of override. A true ApplyLocale
// always wins; false is taken only together with a Fetcher, since a partial
// override cannot tell an explicit false from an unset field.
func WithConfig(override *Config) Option {
	return func(c *Config) {
		if override == nil {
			return
		}
		if override.Fetcher != nil {
			c.Fetcher = override.Fetcher
			c.ApplyLocale = override.ApplyLocale
		}
		if override.ApplyLocale {
			c.ApplyLocale = true
		}
		if override.Locale != "" {
			c.Locale = override.Locale
		}
	}
}

// Resolve returns a fresh configuration built from the process-wide default
// with opts applied in order.
func Resolve(opts ...Option) (*Config, error) {
	cfg := Default()
	if cfg == nil {
		cfg = &Config{}
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.Fetcher == nil {
		return nil, errors.Wrap(ErrNoConfig, "resolve")
	}
	return cfg, nil
}
