// Package bitfield decodes fixed-width bit fields packed across
// consecutive bytes, most significant bit first.
package bitfield

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// Field is a named bit field.
type Field struct {
	Name  string
	Width uint8
}

// Layout is an ordered list of fields. The widths must sum to a
// multiple of 8 and no field may be wider than 64 bits.
type Layout []Field

// Values maps field names to their decoded values.
type Values map[string]uint64

// Errors.
var (
	ErrUnaligned  = errors.New("layout is not byte aligned")
	ErrFieldWidth = errors.New("invalid field width")
	ErrShortBuf   = errors.New("buffer too short for layout")
)

// Bits returns the total width of the layout.
func (l Layout) Bits() int {
	n := 0
	for _, f := range l {
		n += int(f.Width)
	}
	return n
}

// Size returns the number of bytes the layout spans.
func (l Layout) Size() int {
	return l.Bits() / 8
}

// Decode reads every field of the layout from buf starting at offset.
// Callers check the buffer length beforehand, a short buffer is a
// programming error and is reported as ErrShortBuf.
func (l Layout) Decode(buf []byte, offset int) (Values, error) {
	if l.Bits()%8 != 0 {
		return nil, fmt.Errorf("%w: %d bits", ErrUnaligned, l.Bits())
	}
	if offset < 0 || len(buf)-offset < l.Size() {
		return nil, fmt.Errorf("%w: need %d bytes at %d, have %d",
			ErrShortBuf, l.Size(), offset, len(buf))
	}

	br := bitio.NewReader(bytes.NewReader(buf[offset : offset+l.Size()]))
	values := make(Values, len(l))
	for _, f := range l {
		if f.Width == 0 || f.Width > 64 {
			return nil, fmt.Errorf("%w: %v %d", ErrFieldWidth, f.Name, f.Width)
		}
		v, err := br.ReadBits(f.Width)
		if err != nil {
			return nil, fmt.Errorf("read %v: %w", f.Name, err)
		}
		if f.Name != "" {
			values[f.Name] = v
		}
	}
	return values, nil
}

// Flag reports whether the named field is non-zero.
func (v Values) Flag(name string) bool {
	return v[name] != 0
}
