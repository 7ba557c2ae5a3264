// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// 10 MB should be plenty for a single field or TRE.
const maxBufSize = 10 * 1024 * 1024

// Discard is called with at most this many bytes at a time.
const maxDiscardChunk = 1 << 30

// discarder is implemented by e.g. *bufio.Reader.
type discarder interface {
	Discard(n int) (discarded int, err error)
}

// NewReader creates a new Reader positioned at opts.Offset.
func NewReader(opts ReaderOptions) *Reader {
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	return &Reader{
		r:                      opts.R,
		offset:                 opts.Offset,
		fileType:               opts.FileType,
		warnf:                  opts.Warnf,
		iso88591CharsetDecoder: charmap.ISO8859_1.NewDecoder(),
	}
}

// Reader reads fixed-width NITF fields from a forward-only stream
// and keeps track of the stream position.
// Note that this is not thread safe.
type Reader struct {
	r      io.Reader
	offset int64

	// Number of bytes consumed from r.
	n int64

	fileType FileType
	warnf    func(string, ...any)

	buf                    []byte
	iso88591CharsetDecoder *encoding.Decoder
}

// Pos returns the current stream position, i.e. the creation offset plus
// the number of bytes read or skipped so far.
func (e *Reader) Pos() int64 {
	return e.offset + e.n
}

// CanSeek reports whether the Reader can move backwards. It can not.
func (e *Reader) CanSeek() bool {
	return false
}

// FileType returns the file type in use.
func (e *Reader) FileType() FileType {
	return e.fileType
}

// SetFileType sets the file type used to select the date grammar.
func (e *Reader) SetFileType(fileType FileType) {
	e.fileType = fileType
}

// ReadBytesRaw reads exactly n bytes.
// The returned slice is owned by the caller.
//
// If the stream ends before n bytes are read, the position still
// advances by the bytes that were read.
func (e *Reader) ReadBytesRaw(n int) ([]byte, error) {
	if err := e.checkLength(n, "bytes"); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if err := e.readFull(b, "bytes"); err != nil {
		return nil, err
	}
	return b, nil
}

// Skip advances the stream by n bytes without returning them.
func (e *Reader) Skip(n int64) error {
	start := e.Pos()
	if n < 0 {
		return newParseError(ErrUnexpectedValue, start, "skip", fmt.Sprintf("%d", n))
	}

	if d, ok := e.r.(discarder); ok {
		remaining := n
		for remaining > 0 {
			chunk := int(min(remaining, maxDiscardChunk))
			discarded, err := d.Discard(chunk)
			e.n += int64(discarded)
			remaining -= int64(discarded)
			if err != nil {
				return e.ioError(err, start, "skip", n-remaining, n)
			}
			if discarded == 0 {
				return e.ioError(io.ErrNoProgress, start, "skip", n-remaining, n)
			}
		}
		return nil
	}

	skipped, err := io.CopyN(io.Discard, e.r, n)
	e.n += skipped
	if err != nil {
		return e.ioError(err, start, "skip", skipped, n)
	}
	return nil
}

func (e *Reader) allocateBuf(length int) {
	if length > cap(e.buf) {
		e.buf = make([]byte, length)
	}
}

func (e *Reader) checkLength(n int, field string) error {
	if n < 0 {
		return newParseError(ErrUnexpectedValue, e.Pos(), field, fmt.Sprintf("negative length %d", n))
	}
	if n > maxBufSize {
		return newParseError(ErrUnexpectedValue, e.Pos(), field, fmt.Sprintf("length %d exceeds max %d", n, maxBufSize))
	}
	return nil
}

// readBytesVolatile reads n bytes into the shared buffer.
// The result is not valid after the next read.
func (e *Reader) readBytesVolatile(n int, field string) ([]byte, error) {
	if err := e.checkLength(n, field); err != nil {
		return nil, err
	}
	e.allocateBuf(n)
	if err := e.readFull(e.buf[:n], field); err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}

func (e *Reader) readFull(b []byte, field string) error {
	start := e.Pos()
	n, err := io.ReadFull(e.r, b)
	e.n += int64(n)
	if err != nil {
		return e.ioError(err, start, field, int64(n), int64(len(b)))
	}
	return nil
}

func (e *Reader) ioError(err error, start int64, field string, got, want int64) error {
	switch {
	case err == io.EOF && got == 0:
		return newParseError(ErrEndOfStream, start, field, "")
	case err == io.EOF, err == io.ErrUnexpectedEOF:
		return &ParseError{
			Kind:  ErrShortRead,
			Field: field,
			Pos:   start,
			Err:   fmt.Errorf("got %d of %d bytes", got, want),
		}
	default:
		return &ParseError{Kind: ErrStreamFailure, Field: field, Pos: start, Err: err}
	}
}
