package main

import "time"

const (
	defaultBindHost        = "0.0.0.0"
	defaultAPIPort         = 3001
	defaultQueryTimeout    = 30 * time.Second
	defaultThreatRateLimit = 100 // requests per hour per caller
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	DBPath          string        `mapstructure:"db-path"`
	APIPort         int           `mapstructure:"api-port"`
	APIAddr         string        `mapstructure:"api-addr"`
	APIKey          string        `mapstructure:"api-key"`
	QueryTimeout    time.Duration `mapstructure:"query-timeout"`
	WSEnabled       bool          `mapstructure:"ws-enabled"`
	ThreatRateLimit int           `mapstructure:"threat-rate-limit"`
	ConfigPath      string        `mapstructure:"-"` // not from config file
}
