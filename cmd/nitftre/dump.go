// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/bep/nitfmeta"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// Width of UDHDL and XHDL.
	sectionLengthLength = 5
	// Width of UDHOFL and XHDLOFL.
	sectionOverflowLength = 3
	// Width of the TRE tag and length fields.
	treHeaderLength = 11
)

// treRecord is written as one JSON line per TRE.
type treRecord struct {
	File     string `json:"file"`
	FileType string `json:"file_type"`
	Offset   int64  `json:"offset"`
	Tag      string `json:"tag"`
	Length   int    `json:"length"`
	Value    any    `json:"value"`
}

type dumper struct {
	cfg    config
	parser *nitfmeta.TRECollectionParser
	logger *zap.Logger

	mu  sync.Mutex
	enc *json.Encoder
}

func newDumper(cfg config, w io.Writer, logger *zap.Logger) (*dumper, error) {
	registry := nitfmeta.NewTRERegistry()
	for _, filename := range cfg.Descriptors {
		if err := registry.LoadDescriptorsFile(filename); err != nil {
			return nil, err
		}
		logger.Debug("loaded TRE descriptors", zap.String("file", filename))
	}

	return &dumper{
		cfg:    cfg,
		parser: nitfmeta.NewTRECollectionParser(registry),
		logger: logger,
		enc:    json.NewEncoder(w),
	}, nil
}

// dumpAll dumps the TREs of each file, cfg.Concurrency files at a time.
// Each file gets its own Reader; the registry is only read from here on.
func (d *dumper) dumpAll(ctx context.Context, filenames []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for _, filename := range filenames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, err := d.dumpFile(filename)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			return d.write(records)
		})
	}

	return g.Wait()
}

func (d *dumper) write(records []treRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, rec := range records {
		if err := d.enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) dumpFile(filename string) ([]treRecord, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	logger := d.logger.With(zap.String("file", filename))

	r := nitfmeta.NewReader(nitfmeta.ReaderOptions{
		R:     bufio.NewReader(f),
		Warnf: logger.Sugar().Warnf,
	})

	fileType, err := r.ReadFileType()
	if err != nil {
		return nil, err
	}
	if err := r.Skip(d.cfg.Offset - r.Pos()); err != nil {
		return nil, err
	}

	length := d.cfg.Length
	if length == 0 {
		lengthPos := r.Pos()
		if length, err = r.ReadInt(sectionLengthLength); err != nil {
			return nil, err
		}
		if length == 0 {
			logger.Info("no TREs")
			return nil, nil
		}
		if length < sectionOverflowLength {
			return nil, &nitfmeta.ParseError{
				Kind:  nitfmeta.ErrUnexpectedValue,
				Field: "TRE section length",
				Text:  strconv.Itoa(length),
				Pos:   lengthPos,
				Err:   fmt.Errorf("must be 0 or at least %d", sectionOverflowLength),
			}
		}
		overflow, err := r.ReadInt(sectionOverflowLength)
		if err != nil {
			return nil, err
		}
		logger.Debug("TRE section", zap.Int("length", length), zap.Int("overflow", overflow))
		length -= sectionOverflowLength
	}

	offset := r.Pos()
	tres, err := d.parser.Parse(r, length)
	if err != nil {
		return nil, err
	}

	records := make([]treRecord, 0, tres.Len())
	for _, tre := range tres.All() {
		records = append(records, treRecord{
			File:     filename,
			FileType: fileType.String(),
			Offset:   offset,
			Tag:      tre.Tag,
			Length:   tre.Length,
			Value:    tre.Value,
		})
		offset += treHeaderLength + int64(tre.Length)
	}

	logger.Info("read TREs", zap.Stringer("file_type", fileType), zap.Int("count", tres.Len()))

	return records, nil
}
