package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectVP6(t *testing.T) {
	cases := []struct {
		name         string
		codec        Codec
		chunk        []byte
		isAlpha      bool
		expected     Geometry
		expectedHint *CropHint
	}{
		{
			name:     "keyframe",
			codec:    VP6,
			chunk:    []byte{0x00, 0x46, 0x00, 0x05, 0x04, 0, 0, 0, 0},
			expected: Geometry{Width: 64, Height: 80},
		},
		{
			name:     "separatedCoeff",
			codec:    VP6,
			chunk:    []byte{0x00, 0x47, 0x00, 0xaa, 0xbb, 0x1e, 0x28, 0, 0},
			expected: Geometry{Width: 640, Height: 480},
		},
		{
			name:     "filterHeader",
			codec:    VP6,
			chunk:    []byte{0x00, 0x46, 0x02, 0xaa, 0xbb, 0x1e, 0x28, 0, 0},
			expected: Geometry{Width: 640, Height: 480},
		},
		{
			name:  "deltaFrame",
			codec: VP6,
			chunk: []byte{0x00, 0xc6, 0x00, 0x05, 0x04, 0, 0, 0, 0},
		},
		{
			name:  "tooShort",
			codec: VP6,
			chunk: []byte{0x00, 0x46, 0x00, 0x05, 0x04, 0, 0, 0},
		},
		{
			name:         "cropHint",
			codec:        VP6,
			chunk:        []byte{0x12, 0x46, 0x00, 0x05, 0x04, 0, 0, 0, 0},
			expected:     Geometry{Width: 64, Height: 80},
			expectedHint: &CropHint{X: 1, Y: 2},
		},
		{
			name:     "cropHintAlphaInstance",
			codec:    VP6Alpha,
			chunk:    []byte{0x12, 0, 0, 4, 0x46, 0x00, 0x05, 0x04, 0, 0, 0, 0},
			isAlpha:  true,
			expected: Geometry{Width: 64, Height: 80},
		},
		{
			name:         "alpha",
			codec:        VP6Alpha,
			chunk:        []byte{0x30, 0, 0, 4, 0x46, 0x00, 0x02, 0x03, 0, 0, 0, 0},
			expected:     Geometry{Width: 48, Height: 32},
			expectedHint: &CropHint{X: 3, Y: 0},
		},
		{
			name:  "alphaTooShort",
			codec: VP6Alpha,
			chunk: []byte{0x00, 0, 0, 4, 0x46, 0x00, 0x02, 0x03, 0, 0, 0},
		},
		{
			name:  "avc",
			codec: AVC,
			chunk: []byte{0x00, 0x46, 0x00, 0x05, 0x04, 0, 0, 0, 0},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			geometry, hint := Inspect(tc.codec, tc.chunk, tc.isAlpha)
			require.Equal(t, tc.expected, geometry)
			require.Equal(t, tc.expectedHint, hint)
		})
	}
}

func TestInspectH263(t *testing.T) {
	cases := []struct {
		name  string
		chunk []byte
		valid bool
	}{
		{"picFormat0", []byte{0x00, 0x00, 0x80, 0, 0, 0, 0, 0, 0, 0}, true},
		{"picFormat1", []byte{0x00, 0x00, 0x84, 0, 0, 0, 0, 0, 0, 0}, true},
		{"picFormat2", []byte{0x00, 0x00, 0x88, 0, 0, 0, 0, 0, 0, 0}, false},
		{"badMarker", []byte{0x00, 0x01, 0x80, 0, 0, 0, 0, 0, 0, 0}, false},
		{"tooShort", []byte{0x00, 0x00, 0x80, 0, 0, 0, 0, 0, 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, ValidH263Header(tc.chunk))

			geometry, hint := Inspect(H263, tc.chunk, false)
			require.False(t, geometry.Known())
			require.Nil(t, hint)
		})
	}
}

func TestPayloadRange(t *testing.T) {
	alphaChunk := append([]byte{0, 0, 0, 10}, make([]byte, 20)...)

	cases := []struct {
		name           string
		codec          Codec
		chunk          []byte
		isAlpha        bool
		expectedOffset int
		expectedLength int
	}{
		{"h263", H263, []byte{1, 2, 3}, false, 0, 3},
		{"vp6", VP6, []byte{1, 2, 3}, false, 1, 2},
		{"vp6Empty", VP6, []byte{}, false, 0, 0},
		{"alphaPrimary", VP6Alpha, alphaChunk, false, 4, 10},
		{"alphaSecondary", VP6Alpha, alphaChunk, true, 14, 10},
		{"alphaShort", VP6Alpha, []byte{1, 2}, false, 2, 0},
		{"alphaShortSecondary", VP6Alpha, []byte{1, 2}, true, 2, 0},
		{"alphaMasked", VP6Alpha, []byte{0xff, 0, 0, 2, 7, 8, 9}, false, 4, 2},
		{"alphaOverrunPrimary", VP6Alpha, []byte{0, 0, 0, 50, 7, 8}, false, 4, 2},
		{"alphaOverrunSecondary", VP6Alpha, []byte{0, 0, 0, 50, 7, 8}, true, 6, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offset, length := PayloadRange(tc.codec, tc.chunk, tc.isAlpha)
			require.Equal(t, tc.expectedOffset, offset)
			require.Equal(t, tc.expectedLength, length)
		})
	}
}
