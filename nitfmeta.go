// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package nitfmeta reads the fixed-width metadata fields and the tagged
// record extensions (TREs) of NITF and NSIF files.
package nitfmeta

import (
	"io"
)

const (
	// FileTypeUnknown is the zero value; dates cannot be read until the file type is set.
	FileTypeUnknown FileType = iota
	// NITF20 is NITF version 2.0 (MIL-STD-2500A).
	NITF20
	// NITF21 is NITF version 2.1 (MIL-STD-2500C).
	NITF21
	// NSIF10 is NSIF version 1.0 (STANAG 4545).
	NSIF10
)

// FileType is the NITF variant being read.
// It selects the date grammar used by ReadDateTime.
//
//go:generate stringer -type=FileType
type FileType int

// fileTypeMagic maps the 9 byte FHDR+FVER preamble to a file type.
var fileTypeMagic = map[string]FileType{
	"NITF02.00": NITF20,
	"NITF02.10": NITF21,
	"NSIF01.00": NSIF10,
}

// RGB is a colour stored as three raw bytes.
type RGB struct {
	R, G, B uint8
}

// ReaderOptions contains the options for NewReader.
type ReaderOptions struct {
	// The Reader to read from.
	// If it has a Discard(int) (int, error) method (e.g. *bufio.Reader),
	// Skip will use it.
	R io.Reader

	// Offset is the position of R in the underlying file.
	// Pos and all error positions are reported relative to it.
	Offset int64

	// The file type, if known up front.
	// Use SetFileType or ReadFileType to set it later.
	FileType FileType

	// Warnf will be called for each warning.
	Warnf func(string, ...any)
}
