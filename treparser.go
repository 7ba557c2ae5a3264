// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"fmt"
	"io"
	"strconv"
)

// NewTRECollectionParser creates a parser that decodes TREs using registry.
// If registry is nil, NewTRERegistry is used.
func NewTRECollectionParser(registry *TRERegistry) *TRECollectionParser {
	if registry == nil {
		registry = NewTRERegistry()
	}
	return &TRECollectionParser{registry: registry}
}

// TRECollectionParser reads a sequence of TREs.
type TRECollectionParser struct {
	registry *TRERegistry
}

// Registry returns the registry used to look up TRE decoders.
func (p *TRECollectionParser) Registry() *TRERegistry {
	return p.registry
}

// RegisterAdditionalTREDescriptors is a shortcut for Registry().LoadDescriptors(src).
func (p *TRECollectionParser) RegisterAdditionalTREDescriptors(src io.Reader) error {
	return p.registry.LoadDescriptors(src)
}

// Parse reads TREs from r until length bytes, headers included, are consumed.
// Each TRE is a 6 byte tag, a 5 byte payload length and the payload.
//
// A TRE that does not fit in what is left of length fails with ErrBudgetExceeded.
// A decoder that consumes more or less than the declared payload length
// fails with ErrLengthMismatch.
func (p *TRECollectionParser) Parse(r *Reader, length int) (TRECollection, error) {
	var (
		tres      []TRE
		bytesRead int
	)

	for bytesRead < length {
		start := r.Pos()
		if remaining := length - bytesRead; remaining < treHeaderLength {
			return TRECollection{}, &ParseError{
				Kind:  ErrBudgetExceeded,
				Field: "TRE header",
				Pos:   start,
				Err:   fmt.Errorf("%d bytes left, need %d", remaining, treHeaderLength),
			}
		}

		tag, err := r.ReadTrimmedBytes(treTagLength)
		if err != nil {
			return TRECollection{}, err
		}
		treLength, err := r.ReadInt(treLengthLength)
		if err != nil {
			return TRECollection{}, err
		}
		bytesRead += treHeaderLength

		if treLength < 0 {
			return TRECollection{}, &ParseError{
				Kind:  ErrUnexpectedValue,
				Field: "TRE " + tag + " length",
				Text:  strconv.Itoa(treLength),
				Pos:   start + treTagLength,
			}
		}
		if remaining := length - bytesRead; treLength > remaining {
			return TRECollection{}, &ParseError{
				Kind:  ErrBudgetExceeded,
				Field: "TRE " + tag,
				Pos:   start,
				Err:   fmt.Errorf("length %d, but only %d bytes left", treLength, remaining),
			}
		}

		payloadStart := r.Pos()
		v, err := p.registry.Lookup(tag).DecodeTRE(r, tag, treLength)
		if err != nil {
			return TRECollection{}, fmt.Errorf("TRE %s at offset %d: %w", tag, start, err)
		}
		if consumed := r.Pos() - payloadStart; consumed != int64(treLength) {
			return TRECollection{}, &ParseError{
				Kind:  ErrLengthMismatch,
				Field: "TRE " + tag,
				Pos:   start,
				Err:   fmt.Errorf("decoder consumed %d bytes, length is %d", consumed, treLength),
			}
		}

		tres = append(tres, TRE{Tag: tag, Length: treLength, Value: v})
		bytesRead += treLength
	}

	return TRECollection{tres: tres}, nil
}
