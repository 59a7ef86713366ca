// Package codec describes the FLV video codecs and inspects their
// frame headers without decoding them.
package codec

import (
	"fmt"
)

// Codec FLV video codec id.
type Codec uint8

// Video codecs.
const (
	H263     Codec = 2
	VP6      Codec = 4
	VP6Alpha Codec = 5
	AVC      Codec = 7
)

func (c Codec) String() string {
	switch c {
	case H263:
		return "H.263"
	case VP6:
		return "VP6"
	case VP6Alpha:
		return "VP6 with alpha"
	case AVC:
		return "H.264"
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

// FourCC returns the AVI codec code, empty if the codec
// cannot be stored in an AVI file.
func (c Codec) FourCC() string {
	switch c {
	case H263:
		return "FLV1"
	case VP6, VP6Alpha:
		return "VP6F"
	}
	return ""
}

// HasAlpha reports whether chunks carry a separate alpha channel.
func (c Codec) HasAlpha() bool {
	return c == VP6Alpha
}

// FrameType FLV video frame type.
type FrameType uint8

// Frame types.
const (
	FrameTypeKey             FrameType = 1
	FrameTypeInter           FrameType = 2
	FrameTypeDisposableInter FrameType = 3
	FrameTypeGeneratedKey    FrameType = 4
	FrameTypeCommand         FrameType = 5
)

// IsKey true for independently decodable frames.
func (t FrameType) IsKey() bool {
	return t == FrameTypeKey
}

// Geometry frame size in pixels. Zero means unknown.
type Geometry struct {
	Width  int
	Height int
}

// Known reports whether both dimensions are set.
func (g Geometry) Known() bool {
	return g.Width != 0 && g.Height != 0
}

// CropHint pixels the encoder padded to reach a macroblock boundary.
type CropHint struct {
	X int // Right.
	Y int // Bottom.
}

func (h CropHint) String() string {
	return fmt.Sprintf("Suggested cropping: %d pixels from right, %d pixels from bottom", h.X, h.Y)
}

// Rational frame rate.
type Rational struct {
	Num uint32
	Den uint32
}

// Reduce returns the rate with num and den divided by their gcd.
func (r Rational) Reduce() Rational {
	a, b := r.Num, r.Den
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return r
	}
	return Rational{Num: r.Num / a, Den: r.Den / a}
}

// Float returns the rate as a float, 0 if the denominator is 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}
