package codec

import (
	"encoding/binary"

	"flvextract/pkg/video/bitfield"
)

// Reference: flv_h263_decode_picture_header from libavcodec.
var h263Header = bitfield.Layout{
	{Name: "header", Width: 17},
	{Name: "picFormat", Width: 5},
	{Name: "ts", Width: 8},
	{Width: 2},
	{Name: "format", Width: 3},
	{Width: 5},
}

// Reference: vp6_parse_header from libavcodec.
var vp6Header = bitfield.Layout{
	{Name: "deltaFrame", Width: 1},
	{Name: "quant", Width: 6},
	{Name: "separatedCoeff", Width: 1},
	{Name: "subVersion", Width: 5},
	{Name: "filterHeader", Width: 2},
	{Name: "interlaced", Width: 1},
}

const (
	h263MinSize     = 10
	h263StartMarker = 1
	vp6MinSize      = 8
)

// Inspect extracts the frame size and crop hint from a chunk. A zero
// Geometry and nil CropHint are returned when nothing can be derived,
// malformed input is never an error. The H.263 picture size is not
// decoded, see ValidH263Header.
func Inspect(c Codec, chunk []byte, isAlpha bool) (Geometry, *CropHint) {
	switch c {
	case VP6, VP6Alpha:
		return inspectVP6(c, chunk, isAlpha)
	}
	return Geometry{}, nil
}

// ValidH263Header reports whether the chunk starts with a Sorenson
// H.263 picture header using one of the escape code picture formats.
func ValidH263Header(chunk []byte) bool {
	if len(chunk) < h263MinSize {
		return false
	}
	hdr, err := h263Header.Decode(chunk, 0)
	if err != nil {
		return false
	}
	if hdr["header"] != h263StartMarker {
		return false
	}
	// 0: 8-bit escape codes, 1: 16-bit escape codes.
	return hdr["picFormat"] == 0 || hdr["picFormat"] == 1
}

func inspectVP6(c Codec, chunk []byte, isAlpha bool) (Geometry, *CropHint) {
	skip := 1
	if c == VP6Alpha {
		skip = 4
	}
	if len(chunk) < skip+vp6MinSize {
		return Geometry{}, nil
	}

	hdr, err := vp6Header.Decode(chunk, skip)
	if err != nil || hdr.Flag("deltaFrame") {
		return Geometry{}, nil
	}

	pos := skip + vp6Header.Size()
	if hdr.Flag("separatedCoeff") || hdr.Flag("filterHeader") {
		pos += 2 // Coefficient offset.
	}
	geometry := Geometry{
		Height: int(chunk[pos]) * 16,
		Width:  int(chunk[pos+1]) * 16,
	}

	// The first byte holds the padding the encoder added to reach a
	// macroblock boundary. AVI players ignore an adjusted size so it
	// is only reported.
	if isAlpha {
		return geometry, nil
	}
	hint := CropHint{
		X: int(chunk[0] >> 4),
		Y: int(chunk[0] & 0xf),
	}
	if hint.X == 0 && hint.Y == 0 {
		return geometry, nil
	}
	return geometry, &hint
}

const alphaOffsetSize = 4

// PayloadRange returns the part of the chunk that is stored in the
// output. The alpha instance of a VP6Alpha stream stores the alpha
// channel, the primary instance stores the opaque image.
func PayloadRange(c Codec, chunk []byte, isAlpha bool) (offset int, length int) {
	length = len(chunk)

	switch c {
	case VP6:
		offset = 1
		length--
	case VP6Alpha:
		offset = alphaOffsetSize
		if len(chunk) < alphaOffsetSize {
			length = 0
			break
		}
		alphaOffset := int(binary.BigEndian.Uint32(chunk) & 0xffffff)
		if isAlpha {
			offset += alphaOffset
			length -= offset
		} else {
			length = alphaOffset
		}
	}

	if offset > len(chunk) {
		offset = len(chunk)
	}
	if length > len(chunk)-offset {
		length = len(chunk) - offset
	}
	if length < 0 {
		length = 0
	}
	return offset, length
}
