// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	dateTimeLength       = 14
	encryptionFlagLength = 1
	rgbLength            = 3
	fileTypeLength       = 9

	// ddHHmmss'Z'MonYY, e.g. 14123045ZJUN23.
	layoutNITF20DateTime = "02150405ZJan06"
	// YYYYMMDDhhmmss.
	layoutDateTime = "20060102150405"
	// YYYYMMDD.
	layoutDate = "20060102"
)

// ReadBytes reads n bytes as ISO-8859-1 text.
func (e *Reader) ReadBytes(n int) (string, error) {
	b, err := e.readBytesVolatile(n, "string")
	if err != nil {
		return "", err
	}
	return e.decodeText(b), nil
}

// ReadTrimmedBytes reads n bytes as text and removes trailing white space.
// Leading white space is kept.
func (e *Reader) ReadTrimmedBytes(n int) (string, error) {
	s, err := e.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return rightTrim(s), nil
}

// ReadInt reads n bytes as a base 10 integer that must fit in 32 bits.
func (e *Reader) ReadInt(n int) (int, error) {
	v, err := e.readInteger(n, 32, "integer")
	return int(v), err
}

// ReadInt64 reads n bytes as a base 10 integer.
func (e *Reader) ReadInt64(n int) (int64, error) {
	return e.readInteger(n, 64, "long integer")
}

func (e *Reader) readInteger(n, bitSize int, field string) (int64, error) {
	start := e.Pos()
	s, err := e.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return parseInteger(s, bitSize, start, field)
}

func parseInteger(s string, bitSize int, pos int64, field string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, bitSize)
	if err != nil {
		return 0, &ParseError{Kind: ErrMalformedNumber, Field: field, Text: s, Pos: pos, Err: err}
	}
	return v, nil
}

// ReadFloat64 reads n bytes as a floating point number.
// Surrounding white space is ignored.
func (e *Reader) ReadFloat64(n int) (float64, error) {
	start := e.Pos()
	s, err := e.ReadBytes(n)
	if err != nil {
		return 0, err
	}
	return parseFloat(s, start, "double")
}

func parseFloat(s string, pos int64, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, &ParseError{Kind: ErrMalformedNumber, Field: field, Text: s, Pos: pos, Err: err}
	}
	return v, nil
}

// ReadRGB reads a 3 byte red, green, blue colour.
func (e *Reader) ReadRGB() (RGB, error) {
	b, err := e.readBytesVolatile(rgbLength, "RGB colour")
	if err != nil {
		return RGB{}, err
	}
	return RGB{R: b[0], G: b[1], B: b[2]}, nil
}

// ReadDateTime reads a 14 byte date and time field.
// The grammar depends on the file type, which must be set first.
// Blank fields and fields with an unrecognized length return the zero time.
// All dates are in UTC.
func (e *Reader) ReadDateTime() (time.Time, error) {
	start := e.Pos()

	var layout string
	switch e.fileType {
	case NITF20:
		layout = layoutNITF20DateTime
	case NITF21, NSIF10:
		layout = layoutDateTime
	default:
		return time.Time{}, newParseError(ErrFileTypeNotSet, start, "date", "")
	}

	s, err := e.ReadTrimmedBytes(dateTimeLength)
	if err != nil {
		return time.Time{}, err
	}

	// The order of these matters.
	switch {
	case len(s) == len(layoutDate):
		// Not valid, but seen in the wild.
		layout = layoutDate
	case len(s) == 0:
		return time.Time{}, nil
	case len(s) != dateTimeLength:
		e.warnf("unhandled date format %q at offset %d", s, start)
		return time.Time{}, nil
	}

	return parseDate(layout, s, start, "date")
}

func parseDate(layout, s string, pos int64, field string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, &ParseError{Kind: ErrMalformedDate, Field: field, Text: s, Pos: pos, Err: err}
	}
	return t, nil
}

// ReadEncryptionFlag reads the 1 byte ENCRYP field, which must be "0".
func (e *Reader) ReadEncryptionFlag() error {
	start := e.Pos()
	s, err := e.ReadBytes(encryptionFlagLength)
	if err != nil {
		return err
	}
	if s != "0" {
		return &ParseError{Kind: ErrUnexpectedValue, Field: "encryption flag", Expected: "0", Text: s, Pos: start}
	}
	return nil
}

// VerifyMagic reads len(magic) bytes and checks that they equal magic.
func (e *Reader) VerifyMagic(magic string) error {
	start := e.Pos()
	s, err := e.ReadBytes(len(magic))
	if err != nil {
		return err
	}
	if s != magic {
		return &ParseError{Kind: ErrMagicMismatch, Field: "magic", Expected: magic, Text: s, Pos: start}
	}
	return nil
}

// ReadFileType reads the FHDR and FVER fields at the start of a file
// and sets the file type accordingly.
func (e *Reader) ReadFileType() (FileType, error) {
	start := e.Pos()
	s, err := e.ReadBytes(fileTypeLength)
	if err != nil {
		return FileTypeUnknown, err
	}
	fileType, ok := fileTypeMagic[s]
	if !ok {
		return FileTypeUnknown, &ParseError{
			Kind:     ErrMagicMismatch,
			Field:    "file header",
			Expected: "NITF02.00, NITF02.10 or NSIF01.00",
			Text:     s,
			Pos:      start,
		}
	}
	e.fileType = fileType
	return fileType, nil
}

func (e *Reader) decodeText(b []byte) string {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			s, _ := e.iso88591CharsetDecoder.Bytes(b)
			return string(s)
		}
	}
	return string(b)
}

func rightTrim(s string) string {
	return strings.TrimRightFunc(s, isWhitespace)
}

// isWhitespace reports whether r is white space in a fixed-width field.
// The ASCII separators 0x1C-0x1F count; the no-break spaces and NEL do not.
func isWhitespace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\x1c', '\x1d', '\x1e', '\x1f':
		return true
	case '\u00a0', '\u2007', '\u202f':
		return false
	}
	return unicode.In(r, unicode.Zs, unicode.Zl, unicode.Zp)
}
