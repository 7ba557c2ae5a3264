// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command nitftre reads the Tagged Record Extensions of NITF files and
// writes them as JSON lines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "nitftre:", err)
		}
		os.Exit(1)
	}
}

func runMain(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("nitftre", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: nitftre [flags] file...")
		fs.PrintDefaults()
	}

	var (
		configPath  = fs.String("config", "", "TOML config file")
		descriptors = fs.String("descriptors", "", "comma separated TRE descriptor files")
		offset      = fs.Int64("offset", fileHeaderLength, "offset of the TRE section")
		length      = fs.Int("length", 0, "length of the TRE section; 0 reads it from the file")
		concurrency = fs.Int("concurrency", 4, "number of files to read at the same time")
		logLevel    = fs.String("log-level", "info", "debug, info, warn or error")
		logFormat   = fs.String("log-format", "console", "console or json")
		logFile     = fs.String("log-file", "", "log to this file instead of stderr")
	)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no files given")
	}

	cfg := defaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			return err
		}
	}

	// Flags set on the command line override the config file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "descriptors":
			cfg.Descriptors = append(cfg.Descriptors, splitList(*descriptors)...)
		case "offset":
			cfg.Offset = *offset
		case "length":
			cfg.Length = *length
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "log-level":
			cfg.Log.Level = *logLevel
		case "log-format":
			cfg.Log.Format = *logFormat
		case "log-file":
			cfg.Log.File = *logFile
		}
	})

	if err := cfg.validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	d, err := newDumper(cfg, stdout, logger)
	if err != nil {
		return err
	}

	return d.dumpAll(ctx, fs.Args())
}

func splitList(s string) []string {
	var list []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}
