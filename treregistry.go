// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"fmt"
	"io"
	"maps"
	"os"
)

// NewTRERegistry creates a registry with the built-in TRE descriptors registered.
// Use a zero TRERegistry to start out empty.
func NewTRERegistry() *TRERegistry {
	r := &TRERegistry{
		decoders: make(map[string]TREDecoder, len(builtinTREDecoders)),
	}
	maps.Copy(r.decoders, builtinTREDecoders)
	return r
}

// TRERegistry maps TRE tags to decoders.
// The last decoder registered for a tag wins.
// Note that this is not thread safe.
type TRERegistry struct {
	decoders map[string]TREDecoder
}

// Register registers d as the decoder for tag, replacing any previous one.
func (r *TRERegistry) Register(tag string, d TREDecoder) {
	if r.decoders == nil {
		r.decoders = make(map[string]TREDecoder)
	}
	r.decoders[tag] = d
}

// Lookup returns the decoder for tag.
// Tags without a registered decoder get one that returns the raw payload.
func (r *TRERegistry) Lookup(tag string) TREDecoder {
	if d, found := r.decoders[tag]; found {
		return d
	}
	return rawTREDecoder
}

// Has reports whether a decoder is registered for tag.
func (r *TRERegistry) Has(tag string) bool {
	_, found := r.decoders[tag]
	return found
}

// LoadDescriptors registers a decoder for every TRE described in the
// YAML (or JSON) document read from src.
// Nothing is registered if the document is invalid.
func (r *TRERegistry) LoadDescriptors(src io.Reader) error {
	decoders, err := loadTREDescriptors(src)
	if err != nil {
		return err
	}
	for tag, d := range decoders {
		r.Register(tag, d)
	}
	return nil
}

// LoadDescriptorsFile is LoadDescriptors for a file.
func (r *TRERegistry) LoadDescriptorsFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := r.LoadDescriptors(f); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	return nil
}
