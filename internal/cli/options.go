package cli

import (
	"time"

	"github.com/aretw0/lightpivot/pkg/config"
)

// Options holds the command line settings shared by every command.
type Options struct {
	ConfigPath string
	Server     string
	Namespace  string
	MDX        string
	Locale     string
	Fixtures   string
	RedisURL   string
	CacheTTL   time.Duration
	Debug      bool
}

// LoadConfig reads the configuration file, if any, and applies flag overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if opts.Server != "" {
		cfg.DataSource.Server = opts.Server
	}
	if opts.Namespace != "" {
		cfg.DataSource.Namespace = opts.Namespace
	}
	if opts.MDX != "" {
		cfg.DataSource.BasicMDX = opts.MDX
	}
	if opts.Locale != "" {
		cfg.Locale = opts.Locale
	}
	return cfg, nil
}
