// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfStream is returned when a read finds no bytes left.
	ErrEndOfStream = errors.New("end of stream")
	// ErrShortRead is returned when the stream ends inside a field.
	ErrShortRead = errors.New("short read")
	// ErrStreamFailure is returned when the underlying reader fails.
	ErrStreamFailure = errors.New("stream failure")

	// ErrMalformedNumber is returned when a numeric field does not parse.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrMalformedDate is returned when a date field does not match its grammar.
	ErrMalformedDate = errors.New("malformed date")
	// ErrUnexpectedValue is returned when a field holds a value that is not allowed.
	ErrUnexpectedValue = errors.New("unexpected value")
	// ErrMagicMismatch is returned when a literal marker does not match.
	ErrMagicMismatch = errors.New("magic mismatch")

	// ErrFileTypeNotSet is returned when a date is read before the file type is known.
	ErrFileTypeNotSet = errors.New("file type not set")

	// ErrBudgetExceeded is returned when a TRE does not fit in the bytes left of its section.
	ErrBudgetExceeded = errors.New("TRE section length exceeded")
	// ErrLengthMismatch is returned when a TRE decoder consumes a different
	// number of bytes than the TRE declared.
	ErrLengthMismatch = errors.New("TRE length mismatch")
)

// ParseError describes a failure to read a field.
type ParseError struct {
	// Kind is one of the Err* sentinel errors.
	Kind error

	// Field names what was being read, e.g. "integer" or "TRE ACFTB".
	Field string

	// Text is the offending text, if any.
	Text string

	// Expected is the expected text, if any.
	Expected string

	// Pos is the stream position where the field began.
	Pos int64

	// Err is the underlying cause, if any.
	Err error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("%s at offset %d", e.Kind, e.Pos)
	if e.Field != "" {
		msg += " reading " + e.Field
	}
	switch {
	case e.Expected != "":
		msg += fmt.Sprintf(": expected %q, got %q", e.Expected, e.Text)
	case e.Text != "":
		msg += fmt.Sprintf(": %q", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap makes both the Kind and the cause visible to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsInvalidFormat reports whether err is caused by malformed content
// rather than by I/O or API misuse.
func IsInvalidFormat(err error) bool {
	for _, kind := range []error{
		ErrMalformedNumber,
		ErrMalformedDate,
		ErrUnexpectedValue,
		ErrMagicMismatch,
		ErrBudgetExceeded,
		ErrLengthMismatch,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// IsTruncated reports whether err is caused by the stream ending too early.
func IsTruncated(err error) bool {
	return errors.Is(err, ErrEndOfStream) || errors.Is(err, ErrShortRead)
}

func newParseError(kind error, pos int64, field, text string) *ParseError {
	return &ParseError{Kind: kind, Pos: pos, Field: field, Text: text}
}
