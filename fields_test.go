// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bep/nitfmeta"

	qt "github.com/frankban/quicktest"
)

func TestReadStrings(t *testing.T) {
	c := qt.New(t)

	r := newReader("  AB  AB  \xe6\xf8\xe5")

	s, err := r.ReadTrimmedBytes(6)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "  AB")
	c.Assert(r.Pos(), qt.Equals, int64(6))

	s, err = r.ReadBytes(4)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "AB  ")

	s, err = r.ReadBytes(3)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "æøå")

	r = newReader("AB  ")
	s, err = r.ReadTrimmedBytes(4)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "AB")

	r = newReader("    ")
	s, err = r.ReadTrimmedBytes(4)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "")

	// No-break space and NEL are kept, the ASCII separators are not.
	r = newReader("AB\xa0\x85CD\x1c\x1d\x1e\x1f\t ")
	s, err = r.ReadTrimmedBytes(4)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "AB\u00a0\u0085")
	s, err = r.ReadTrimmedBytes(8)
	c.Assert(err, qt.IsNil)
	c.Assert(s, qt.Equals, "CD")
}

func TestReadNumbers(t *testing.T) {
	c := qt.New(t)

	c.Run("Int", func(c *qt.C) {
		r := newReader("00042-0042")
		v, err := r.ReadInt(5)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, 42)
		v, err = r.ReadInt(5)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, -42)
		c.Assert(r.Pos(), qt.Equals, int64(10))
	})

	c.Run("Int malformed", func(c *qt.C) {
		for _, s := range []string{"abcde", "     ", " 0042", "00 42", "9999999999"} {
			r := newReader("xx" + s)
			_, err := r.ReadBytes(2)
			c.Assert(err, qt.IsNil)
			_, err = r.ReadInt(len(s))
			c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedNumber, qt.Commentf("%q", s))
			c.Assert(nitfmeta.IsInvalidFormat(err), qt.IsTrue)

			var perr *nitfmeta.ParseError
			c.Assert(errors.As(err, &perr), qt.IsTrue)
			c.Assert(perr.Text, qt.Equals, s)
			c.Assert(perr.Pos, qt.Equals, int64(2))
		}
	})

	c.Run("Int64", func(c *qt.C) {
		r := newReader("123456789012")
		v, err := r.ReadInt64(12)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, int64(123456789012))

		r = newReader("12345678901x")
		_, err = r.ReadInt64(12)
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedNumber)
	})

	c.Run("Float64", func(c *qt.C) {
		r := newReader(" 12.5  -1.25E+02")
		v, err := r.ReadFloat64(7)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, 12.5)
		v, err = r.ReadFloat64(9)
		c.Assert(err, qt.IsNil)
		c.Assert(v, qt.Equals, -125.0)

		r = newReader("12,5")
		_, err = r.ReadFloat64(4)
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedNumber)
		c.Assert(err, qt.ErrorMatches, `malformed number at offset 0 reading double: "12,5".*`)
	})
}

func TestReadRGB(t *testing.T) {
	c := qt.New(t)

	r := newReader("\xff\x80\x00")
	rgb, err := r.ReadRGB()
	c.Assert(err, qt.IsNil)
	c.Assert(rgb, qt.Equals, nitfmeta.RGB{R: 255, G: 128, B: 0})
	c.Assert(r.Pos(), qt.Equals, int64(3))

	r = newReader("\xff\x80")
	_, err = r.ReadRGB()
	c.Assert(err, qt.ErrorIs, nitfmeta.ErrShortRead)
}

func TestReadDateTime(t *testing.T) {
	c := qt.New(t)

	readDate := func(fileType nitfmeta.FileType, s string) (time.Time, error) {
		r := nitfmeta.NewReader(nitfmeta.ReaderOptions{R: strings.NewReader(s), FileType: fileType})
		d, err := r.ReadDateTime()
		if err == nil && r.Pos() != 14 {
			return d, fmt.Errorf("expected position 14, got %d", r.Pos())
		}
		return d, err
	}

	c.Run("Full", func(c *qt.C) {
		for _, fileType := range []nitfmeta.FileType{nitfmeta.NITF21, nitfmeta.NSIF10} {
			d, err := readDate(fileType, "20230615120000")
			c.Assert(err, qt.IsNil)
			c.Assert(d, eq, time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC))
		}
	})

	c.Run("NITF 2.0", func(c *qt.C) {
		d, err := readDate(nitfmeta.NITF20, "14123045ZJUN23")
		c.Assert(err, qt.IsNil)
		c.Assert(d, eq, time.Date(2023, 6, 14, 12, 30, 45, 0, time.UTC))

		d, err = readDate(nitfmeta.NITF20, "01000000ZJan98")
		c.Assert(err, qt.IsNil)
		c.Assert(d, eq, time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC))
	})

	c.Run("Day only", func(c *qt.C) {
		for _, fileType := range []nitfmeta.FileType{nitfmeta.NITF20, nitfmeta.NITF21, nitfmeta.NSIF10} {
			d, err := readDate(fileType, "20230615      ")
			c.Assert(err, qt.IsNil)
			c.Assert(d, eq, time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
		}
	})

	c.Run("Blank", func(c *qt.C) {
		for _, fileType := range []nitfmeta.FileType{nitfmeta.NITF20, nitfmeta.NITF21, nitfmeta.NSIF10} {
			d, err := readDate(fileType, strings.Repeat(" ", 14))
			c.Assert(err, qt.IsNil)
			c.Assert(d.IsZero(), qt.IsTrue)
		}
	})

	c.Run("Unhandled length", func(c *qt.C) {
		var warnings []string
		r := nitfmeta.NewReader(nitfmeta.ReaderOptions{
			R:        strings.NewReader("2023061512    "),
			FileType: nitfmeta.NITF21,
			Warnf: func(format string, args ...any) {
				warnings = append(warnings, fmt.Sprintf(format, args...))
			},
		})
		d, err := r.ReadDateTime()
		c.Assert(err, qt.IsNil)
		c.Assert(d.IsZero(), qt.IsTrue)
		c.Assert(r.Pos(), qt.Equals, int64(14))
		c.Assert(warnings, qt.DeepEquals, []string{`unhandled date format "2023061512" at offset 0`})
	})

	c.Run("Malformed", func(c *qt.C) {
		_, err := readDate(nitfmeta.NITF21, "20231315120000")
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedDate)
		var perr *nitfmeta.ParseError
		c.Assert(errors.As(err, &perr), qt.IsTrue)
		c.Assert(perr.Text, qt.Equals, "20231315120000")

		// A NITF 2.1 date in a NITF 2.0 file.
		_, err = readDate(nitfmeta.NITF20, "20230615120000")
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedDate)

		_, err = readDate(nitfmeta.NITF21, "2023061x")
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrMalformedDate)
	})

	c.Run("File type not set", func(c *qt.C) {
		r := newReader("20230615120000")
		_, err := r.ReadDateTime()
		c.Assert(err, qt.ErrorIs, nitfmeta.ErrFileTypeNotSet)
		c.Assert(nitfmeta.IsInvalidFormat(err), qt.IsFalse)
		c.Assert(r.Pos(), qt.Equals, int64(0))

		r.SetFileType(nitfmeta.NITF21)
		c.Assert(r.FileType(), qt.Equals, nitfmeta.NITF21)
		d, err := r.ReadDateTime()
		c.Assert(err, qt.IsNil)
		c.Assert(d, eq, time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC))
	})
}

func TestReadEncryptionFlag(t *testing.T) {
	c := qt.New(t)

	r := newReader("01")
	c.Assert(r.ReadEncryptionFlag(), qt.IsNil)
	c.Assert(r.Pos(), qt.Equals, int64(1))

	err := r.ReadEncryptionFlag()
	c.Assert(err, qt.ErrorIs, nitfmeta.ErrUnexpectedValue)
	c.Assert(err, qt.ErrorMatches, `unexpected value at offset 1 reading encryption flag: expected "0", got "1"`)
}

func TestVerifyMagic(t *testing.T) {
	c := qt.New(t)

	r := newReader("NITFNSIF")
	c.Assert(r.VerifyMagic("NITF"), qt.IsNil)
	c.Assert(r.Pos(), qt.Equals, int64(4))

	err := r.VerifyMagic("NITF")
	c.Assert(err, qt.ErrorIs, nitfmeta.ErrMagicMismatch)
	var perr *nitfmeta.ParseError
	c.Assert(errors.As(err, &perr), qt.IsTrue)
	c.Assert(perr.Expected, qt.Equals, "NITF")
	c.Assert(perr.Text, qt.Equals, "NSIF")
	c.Assert(perr.Pos, qt.Equals, int64(4))
}

func TestReadFileType(t *testing.T) {
	c := qt.New(t)

	for s, want := range map[string]nitfmeta.FileType{
		"NITF02.00": nitfmeta.NITF20,
		"NITF02.10": nitfmeta.NITF21,
		"NSIF01.00": nitfmeta.NSIF10,
	} {
		r := newReader(s)
		got, err := r.ReadFileType()
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, want)
		c.Assert(r.FileType(), qt.Equals, want)
	}

	r := newReader("NITF03.00")
	_, err := r.ReadFileType()
	c.Assert(err, qt.ErrorIs, nitfmeta.ErrMagicMismatch)
	c.Assert(r.FileType(), qt.Equals, nitfmeta.FileTypeUnknown)
}

func newReader(s string) *nitfmeta.Reader {
	return nitfmeta.NewReader(nitfmeta.ReaderOptions{R: strings.NewReader(s)})
}
