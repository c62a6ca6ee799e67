package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/jcalabro/bloomr"
)

// config holds the defaults used when creating and updating filters.
type config struct {
	Filter filterConfig `toml:"filter"`
}

type filterConfig struct {
	Size     uint64  `toml:"size"`
	Hashes   uint32  `toml:"hashes"`
	Hash     string  `toml:"hash"`
	WarnFill float64 `toml:"warn_fill"`
}

func defaultConfig() config {
	return config{
		Filter: filterConfig{
			Size:     1 << 20,
			Hashes:   7,
			Hash:     bloomr.XXH3.String(),
			WarnFill: 0.5,
		},
	}
}

// loadConfig reads the TOML file at path over the defaults. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.Filter.WarnFill < 0 || c.Filter.WarnFill > 1 {
		return fmt.Errorf("warn_fill must be within [0, 1], got %v", c.Filter.WarnFill)
	}
	_, err := bloomr.ParseHashFamily(c.Filter.Hash)
	return err
}

// makeConfig loads the --config file and applies explicitly set flags on
// top of it.
func makeConfig(ctx *cli.Context) (config, error) {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return config{}, err
	}
	if ctx.IsSet(sizeFlag.Name) {
		cfg.Filter.Size = ctx.Uint64(sizeFlag.Name)
	}
	if ctx.IsSet(hashesFlag.Name) {
		cfg.Filter.Hashes = uint32(ctx.Uint(hashesFlag.Name))
	}
	if ctx.IsSet(hashFlag.Name) {
		cfg.Filter.Hash = ctx.String(hashFlag.Name)
	}
	if ctx.IsSet(warnFillFlag.Name) {
		cfg.Filter.WarnFill = ctx.Float64(warnFillFlag.Name)
	}
	return cfg, cfg.validate()
}
