// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"slices"
)

const (
	// Width of the CETAG field.
	treTagLength = 6
	// Width of the CEL field.
	treLengthLength = 5

	treHeaderLength = treTagLength + treLengthLength
)

// TRE is a tagged record extension.
type TRE struct {
	// The tag, e.g. "BLOCKA", with trailing spaces removed.
	Tag string
	// The declared length of the payload in bytes.
	Length int
	// The decoded payload.
	// This is a []byte with the raw payload for tags without a registered decoder,
	// and TREFields for tags described by a descriptor document.
	Value any
}

// TREField is a named value in a descriptor decoded TRE.
type TREField struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// TREFields is an ordered list of fields.
// Loops are stored as a single field with a []TREFields value.
type TREFields []TREField

// Get returns the value of the first field with the given name.
func (f TREFields) Get(name string) (any, bool) {
	for _, field := range f {
		if field.Name == name {
			return field.Value, true
		}
	}
	return nil, false
}

// TREDecoder decodes the payload of a TRE.
// DecodeTRE must consume exactly length bytes from r.
type TREDecoder interface {
	DecodeTRE(r *Reader, tag string, length int) (any, error)
}

// TREDecoderFunc is a function that implements TREDecoder.
type TREDecoderFunc func(r *Reader, tag string, length int) (any, error)

// DecodeTRE calls f.
func (f TREDecoderFunc) DecodeTRE(r *Reader, tag string, length int) (any, error) {
	return f(r, tag, length)
}

// rawTREDecoder keeps the payload as is.
var rawTREDecoder TREDecoderFunc = func(r *Reader, tag string, length int) (any, error) {
	return r.ReadBytesRaw(length)
}

// TRECollection is an ordered list of TREs as they appeared in the stream.
// The same tag may appear more than once.
type TRECollection struct {
	tres []TRE
}

// Len returns the number of TREs.
func (c TRECollection) Len() int {
	return len(c.tres)
}

// All returns all TREs in stream order.
func (c TRECollection) All() []TRE {
	return slices.Clone(c.tres)
}

// ByTag returns the TREs with the given tag in stream order.
func (c TRECollection) ByTag(tag string) []TRE {
	var tres []TRE
	for _, tre := range c.tres {
		if tre.Tag == tag {
			tres = append(tres, tre)
		}
	}
	return tres
}

// Has reports whether a TRE with the given tag is present.
func (c TRECollection) Has(tag string) bool {
	return slices.ContainsFunc(c.tres, func(tre TRE) bool {
		return tre.Tag == tag
	})
}

// Tags returns the distinct tags in order of first appearance.
func (c TRECollection) Tags() []string {
	var tags []string
	for _, tre := range c.tres {
		if !slices.Contains(tags, tre.Tag) {
			tags = append(tags, tre.Tag)
		}
	}
	return tags
}
