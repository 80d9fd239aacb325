// Package config loads tool defaults from an optional pyframe.toml file.
// Command-line flags override anything set here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultGas is the instruction budget used when neither the config file
// nor the -gas flag sets one.
const DefaultGas = 1_000_000

type Config struct {
	Format  string `toml:"format"`   // "json" or "cbor"
	Indent  bool   `toml:"indent"`   // pretty-print JSON output
	Gas     int    `toml:"gas"`      // instruction budget for run
	NoColor bool   `toml:"no_color"` // disable colored diagnostics
}

func Default() Config {
	return Config{
		Format: "json",
		Gas:    DefaultGas,
	}
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Format != "json" && c.Format != "cbor" {
		return fmt.Errorf("unknown format %q (want json or cbor)", c.Format)
	}
	if c.Gas <= 0 {
		return fmt.Errorf("gas must be positive, got %d", c.Gas)
	}
	return nil
}
