// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Length of the FHDR and FVER fields that start every file.
const fileHeaderLength = 9

type config struct {
	// TRE descriptor documents to load in addition to the built-in ones.
	Descriptors []string `toml:"descriptors"`

	// Offset of the TRE section in the file.
	Offset int64 `toml:"offset"`

	// Length of the TRE section.
	// If 0, the section is read as a 5 digit length field followed by a
	// 3 digit overflow field and the TREs, the way NITF stores UDHD and XHD.
	Length int `toml:"length"`

	// Number of files to read at the same time.
	Concurrency int `toml:"concurrency"`

	Log logConfig `toml:"log"`
}

type logConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`

	// If set, log to this file instead of stderr.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

func defaultConfig() config {
	return config{
		Offset:      fileHeaderLength,
		Concurrency: 4,
		Log: logConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func (c config) validate() error {
	if c.Offset < fileHeaderLength {
		return fmt.Errorf("offset must be at least %d, got %d", fileHeaderLength, c.Offset)
	}
	if c.Length < 0 {
		return fmt.Errorf("negative length %d", c.Length)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
