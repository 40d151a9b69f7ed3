// Package config loads process settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option customises how Load reads the environment.
type Option func(*env.Options)

// WithPrefix restricts lookups to variables starting with prefix, so
// `env:"API_URL"` reads SEED_API_URL under WithPrefix("SEED_").
func WithPrefix(prefix string) Option {
	return func(o *env.Options) { o.Prefix = prefix }
}

// WithEnvironment reads from the given map instead of the process
// environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *env.Options) { o.Environment = vars }
}

// Load fills cfg from `env` struct tags. Missing required variables and
// values that do not parse into the field type are reported together.
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
