// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package nitfmeta

import (
	"bytes"
	_ "embed" // needed for the embedded TRE descriptors
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field layouts from STDI-0002.
//
//go:embed tredescriptors.yaml
var builtinTREDescriptorsYAML []byte

var builtinTREDecoders map[string]TREDecoder

const (
	treFieldTypeString  = "string"
	treFieldTypeInteger = "integer"
	treFieldTypeReal    = "real"
	treFieldTypeDate    = "date"
	treFieldTypeBytes   = "bytes"
)

// A descriptor document looks like this:
//
//	tres:
//	  - tag: EXAMPL
//	    length: 0 # optional, 0 means any length
//	    fields:
//	      - {name: NUMX, length: 2, type: integer}
//	      - loop: NUMX # repeat the nested fields NUMX times
//	        name: POINTS
//	        fields:
//	          - {name: X, length: 5, type: real}
//
// Field types are string (the default, right trimmed), integer, real, date
// (YYYYMMDD or YYYYMMDDhhmmss) and bytes.
// Blank integer, real and date fields decode to nil.
type treDescriptorFile struct {
	TREs []*treDescriptor `yaml:"tres"`
}

type treDescriptor struct {
	Tag    string               `yaml:"tag"`
	Length int                  `yaml:"length"`
	Fields []treFieldDescriptor `yaml:"fields"`
}

type treFieldDescriptor struct {
	Name   string               `yaml:"name"`
	Length int                  `yaml:"length"`
	Type   string               `yaml:"type"`
	Loop   string               `yaml:"loop"`
	Fields []treFieldDescriptor `yaml:"fields"`
}

func loadTREDescriptors(src io.Reader) (map[string]TREDecoder, error) {
	var file treDescriptorFile
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode TRE descriptors: %w", err)
	}

	decoders := make(map[string]TREDecoder, len(file.TREs))
	for i, d := range file.TREs {
		if d == nil {
			return nil, fmt.Errorf("tres[%d]: empty descriptor", i)
		}
		d.Tag = rightTrim(d.Tag)
		if d.Tag == "" || len(d.Tag) > treTagLength {
			return nil, fmt.Errorf("tres[%d]: tag %q must be 1 to %d characters", i, d.Tag, treTagLength)
		}
		if d.Length < 0 {
			return nil, fmt.Errorf("tres[%d] (%s): negative length", i, d.Tag)
		}
		if err := validateTREFields(d.Fields); err != nil {
			return nil, fmt.Errorf("tres[%d] (%s): %w", i, d.Tag, err)
		}
		if d.Length > 0 {
			if n, fixed := fixedTREFieldsLength(d.Fields); fixed && n != d.Length {
				return nil, fmt.Errorf("tres[%d] (%s): fields add up to %d bytes, not %d", i, d.Tag, n, d.Length)
			}
		}
		decoders[d.Tag] = d
	}

	return decoders, nil
}

func validateTREFields(fields []treFieldDescriptor) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields")
	}
	for i, f := range fields {
		if f.Loop != "" {
			if err := validateTREFields(f.Fields); err != nil {
				return fmt.Errorf("fields[%d] (loop %s): %w", i, f.Loop, err)
			}
			if minTREFieldsLength(f.Fields) == 0 {
				return fmt.Errorf("fields[%d] (loop %s): loop body reads no bytes", i, f.Loop)
			}
			continue
		}
		if f.Name == "" {
			return fmt.Errorf("fields[%d]: missing name", i)
		}
		if f.Length <= 0 {
			return fmt.Errorf("fields[%d] (%s): length must be positive", i, f.Name)
		}
		if len(f.Fields) > 0 {
			return fmt.Errorf("fields[%d] (%s): nested fields without loop", i, f.Name)
		}
		switch f.Type {
		case "", treFieldTypeString, treFieldTypeInteger, treFieldTypeReal, treFieldTypeBytes:
		case treFieldTypeDate:
			if f.Length != len(layoutDate) && f.Length != len(layoutDateTime) {
				return fmt.Errorf("fields[%d] (%s): date length must be %d or %d", i, f.Name, len(layoutDate), len(layoutDateTime))
			}
		default:
			return fmt.Errorf("fields[%d] (%s): unknown type %q", i, f.Name, f.Type)
		}
	}
	return nil
}

// fixedTREFieldsLength returns the total length of fields if it does not
// depend on any loop count.
func fixedTREFieldsLength(fields []treFieldDescriptor) (int, bool) {
	var n int
	for _, f := range fields {
		if f.Loop != "" {
			return 0, false
		}
		n += f.Length
	}
	return n, true
}

// minTREFieldsLength returns the number of bytes fields read when every
// loop in them runs zero times.
func minTREFieldsLength(fields []treFieldDescriptor) int {
	var n int
	for _, f := range fields {
		if f.Loop == "" {
			n += f.Length
		}
	}
	return n
}

// DecodeTRE implements TREDecoder.
func (d *treDescriptor) DecodeTRE(r *Reader, tag string, length int) (any, error) {
	if d.Length > 0 && length != d.Length {
		r.warnf("TRE %s at offset %d: length %d, expected %d; keeping the raw payload", tag, r.Pos(), length, d.Length)
		return r.ReadBytesRaw(length)
	}

	fd := &treFieldsDecoder{
		r:   r,
		tag: tag,
		end: r.Pos() + int64(length),
	}

	fields, err := fd.decodeFields(d.Fields, nil)
	if err != nil {
		return nil, err
	}

	if remaining := fd.end - r.Pos(); remaining != 0 {
		return nil, &ParseError{
			Kind:  ErrLengthMismatch,
			Field: "TRE " + tag,
			Pos:   r.Pos(),
			Err:   fmt.Errorf("%d bytes left after the last field", remaining),
		}
	}

	return fields, nil
}

type treFieldsDecoder struct {
	r   *Reader
	tag string
	end int64
}

// decodeFields decodes fields. scopes holds the fields decoded so far in the
// enclosing loops, outermost first, and is where loop counters are looked up.
func (d *treFieldsDecoder) decodeFields(fields []treFieldDescriptor, scopes []TREFields) (TREFields, error) {
	out := make(TREFields, 0, len(fields))
	for _, f := range fields {
		if f.Loop != "" {
			count, err := d.loopCount(f.Loop, append(scopes, out))
			if err != nil {
				return nil, err
			}
			if remaining, need := d.end-d.r.Pos(), int64(minTREFieldsLength(f.Fields)); int64(count) > remaining/need {
				return nil, &ParseError{
					Kind:  ErrLengthMismatch,
					Field: fmt.Sprintf("TRE %s loop %s", d.tag, f.Loop),
					Pos:   d.r.Pos(),
					Err:   fmt.Errorf("%d iterations of at least %d bytes do not fit in the %d bytes left", count, need, remaining),
				}
			}
			items := make([]TREFields, 0, count)
			for range count {
				item, err := d.decodeFields(f.Fields, append(scopes, out))
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			name := f.Name
			if name == "" {
				name = f.Loop
			}
			out = append(out, TREField{Name: name, Value: items})
			continue
		}

		v, err := d.decodeField(f)
		if err != nil {
			return nil, err
		}
		out = append(out, TREField{Name: f.Name, Value: v})
	}
	return out, nil
}

func (d *treFieldsDecoder) loopCount(counter string, scopes []TREFields) (int, error) {
	for i := len(scopes) - 1; i >= 0; i-- {
		v, found := scopes[i].Get(counter)
		if !found {
			continue
		}
		n, ok := v.(int)
		if !ok || n < 0 {
			return 0, &ParseError{
				Kind:  ErrUnexpectedValue,
				Field: fmt.Sprintf("TRE %s loop count %s", d.tag, counter),
				Text:  fmt.Sprintf("%v", v),
				Pos:   d.r.Pos(),
			}
		}
		return n, nil
	}
	return 0, &ParseError{
		Kind:  ErrUnexpectedValue,
		Field: fmt.Sprintf("TRE %s loop count %s", d.tag, counter),
		Pos:   d.r.Pos(),
		Err:   fmt.Errorf("no field named %q before the loop", counter),
	}
}

func (d *treFieldsDecoder) decodeField(f treFieldDescriptor) (any, error) {
	start := d.r.Pos()
	field := fmt.Sprintf("TRE %s field %s", d.tag, f.Name)

	if start+int64(f.Length) > d.end {
		return nil, &ParseError{
			Kind:  ErrLengthMismatch,
			Field: field,
			Pos:   start,
			Err:   fmt.Errorf("%d bytes field runs past the end of the TRE at offset %d", f.Length, d.end),
		}
	}

	if f.Type == treFieldTypeBytes {
		return d.r.ReadBytesRaw(f.Length)
	}

	s, err := d.r.ReadTrimmedBytes(f.Length)
	if err != nil {
		return nil, err
	}

	switch f.Type {
	case treFieldTypeInteger:
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		v, err := parseInteger(s, 64, start, field)
		return int(v), err
	case treFieldTypeReal:
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		return parseFloat(s, start, field)
	case treFieldTypeDate:
		switch len(s) {
		case 0:
			return nil, nil
		case len(layoutDate):
			return parseDate(layoutDate, s, start, field)
		default:
			return parseDate(layoutDateTime, s, start, field)
		}
	default:
		return s, nil
	}
}

func init() {
	var err error
	builtinTREDecoders, err = loadTREDescriptors(bytes.NewReader(builtinTREDescriptorsYAML))
	if err != nil {
		panic(err)
	}
}
