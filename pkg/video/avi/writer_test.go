package avi

import (
	"encoding/binary"
	"errors"
	"testing"

	"flvextract/pkg/video/codec"
	"flvextract/pkg/warnings"

	"github.com/stretchr/testify/require"
)

const testPath = "/out/test.avi"

func newTestWriter(t *testing.T, c codec.Codec) (*Writer, *memOpener, *warnings.List) {
	t.Helper()
	opener := newMemOpener()
	warns := &warnings.List{}
	w, err := NewWriter(testPath, c, warns, opener.Open)
	require.NoError(t, err)
	return w, opener, warns
}

func le32(buf []byte, pos int) uint32 {
	return binary.LittleEndian.Uint32(buf[pos:])
}

func le16(buf []byte, pos int) uint16 {
	return binary.LittleEndian.Uint16(buf[pos:])
}

func fourCC(buf []byte, pos int) string {
	return string(buf[pos : pos+4])
}

func TestHeader(t *testing.T) {
	w, opener, _ := newTestWriter(t, codec.H263)
	require.NoError(t, w.Finish(codec.Rational{Num: 25, Den: 1}))

	f := opener.Files[testPath]
	require.True(t, f.Closed())
	buf := f.Bytes()
	require.Len(t, buf, headerSize+8)

	require.Equal(t, "RIFF", fourCC(buf, 0))
	require.Equal(t, uint32(headerSize), le32(buf, 4))
	require.Equal(t, "AVI ", fourCC(buf, 8))

	require.Equal(t, "LIST", fourCC(buf, 12))
	require.Equal(t, uint32(192), le32(buf, 16))
	require.Equal(t, "hdrl", fourCC(buf, 20))

	require.Equal(t, "avih", fourCC(buf, avihOffset))
	require.Equal(t, uint32(56), le32(buf, avihOffset+4))
	require.Equal(t, uint32(0x10), le32(buf, avihOffset+8+12))
	require.Equal(t, uint32(1), le32(buf, avihOffset+8+24))

	require.Equal(t, "LIST", fourCC(buf, 88))
	require.Equal(t, uint32(116), le32(buf, 92))
	require.Equal(t, "strl", fourCC(buf, 96))

	require.Equal(t, "strh", fourCC(buf, strhOffset))
	require.Equal(t, uint32(56), le32(buf, strhOffset+4))
	require.Equal(t, "vids", fourCC(buf, strhOffset+8))
	require.Equal(t, "FLV1", fourCC(buf, strhOffset+12))
	require.Equal(t, uint32(1), le32(buf, strhScalePos))
	require.Equal(t, uint32(25), le32(buf, strhRatePos))
	require.Equal(t, uint32(0xffffffff), le32(buf, strhOffset+48))

	require.Equal(t, "strf", fourCC(buf, strfOffset))
	require.Equal(t, uint32(40), le32(buf, strfOffset+4))
	require.Equal(t, uint32(40), le32(buf, strfOffset+8))
	require.Equal(t, uint16(1), le16(buf, strfOffset+20))
	require.Equal(t, uint16(24), le16(buf, strfOffset+22))
	require.Equal(t, "FLV1", fourCC(buf, strfOffset+24))

	require.Equal(t, "LIST", fourCC(buf, moviOffset))
	require.Equal(t, uint32(4), le32(buf, moviSizePos))
	require.Equal(t, "movi", fourCC(buf, moviOffset+8))

	require.Equal(t, "idx1", fourCC(buf, headerSize))
	require.Equal(t, uint32(0), le32(buf, headerSize+4))
	require.Equal(t, uint32(0), le32(buf, avihTotalFramesPos))
	require.Equal(t, uint32(0), le32(buf, strhLengthPos))
}

func TestWriteChunk(t *testing.T) {
	w, opener, _ := newTestWriter(t, codec.H263)

	require.NoError(t, w.WriteChunk([]byte{1, 2, 3}, 0, codec.FrameTypeKey))
	require.NoError(t, w.WriteChunk([]byte{4, 5, 6, 7}, 40, codec.FrameTypeInter))
	require.NoError(t, w.WriteChunk([]byte{}, 80, codec.FrameTypeDisposableInter))
	require.Equal(t, 3, w.FrameCount())
	require.NoError(t, w.Finish(codec.Rational{Num: 25, Den: 1}))

	buf := opener.Files[testPath].Bytes()

	moviDataSize := (8 + 3 + 1) + (8 + 4) + (8 + 0)
	indexChunkSize := 8 + 3*16
	require.Len(t, buf, headerSize+moviDataSize+indexChunkSize)
	require.Equal(t, uint32(headerSize+moviDataSize+indexChunkSize-8), le32(buf, riffSizePos))
	require.Equal(t, uint32(moviDataSize+4), le32(buf, moviSizePos))

	frames := []byte{
		'0', '0', 'd', 'c', 3, 0, 0, 0, 1, 2, 3, 0, // Padded.
		'0', '0', 'd', 'c', 4, 0, 0, 0, 4, 5, 6, 7,
		'0', '0', 'd', 'c', 0, 0, 0, 0,
	}
	require.Equal(t, frames, buf[headerSize:headerSize+moviDataSize])

	index := buf[headerSize+moviDataSize:]
	require.Equal(t, "idx1", fourCC(index, 0))
	require.Equal(t, uint32(3*16), le32(index, 4))

	expected := []indexEntry{
		{flags: 0x10, offset: 4, length: 3},
		{flags: 0, offset: 16, length: 4},
		{flags: 0, offset: 28, length: 0},
	}
	for i, e := range expected {
		pos := 8 + i*16
		require.Equal(t, "00dc", fourCC(index, pos))
		require.Equal(t, e.flags, le32(index, pos+4))
		require.Equal(t, e.offset, le32(index, pos+8))
		require.Equal(t, e.length, le32(index, pos+12))
	}

	frameCount := uint32(3)
	require.Equal(t, frameCount, le32(buf, avihTotalFramesPos))
	require.Equal(t, frameCount, le32(buf, strhLengthPos))
	require.Equal(t, frameCount, le32(index, 4)/16)
}

func TestGeometry(t *testing.T) {
	w, opener, warns := newTestWriter(t, codec.VP6)

	delta := []byte{0x00, 0xc6, 0x00, 0x10, 0x10, 0, 0, 0, 0}
	key := []byte{0x24, 0x46, 0x00, 0x05, 0x04, 0, 0, 0, 0}
	otherKey := []byte{0x00, 0x46, 0x00, 0x1e, 0x28, 0, 0, 0, 0}

	require.NoError(t, w.WriteChunk(delta, 0, codec.FrameTypeInter))
	require.False(t, w.Geometry().Known())

	require.NoError(t, w.WriteChunk(key, 40, codec.FrameTypeKey))
	require.Equal(t, codec.Geometry{Width: 64, Height: 80}, w.Geometry())

	require.NoError(t, w.WriteChunk(otherKey, 80, codec.FrameTypeKey))
	require.NoError(t, w.WriteChunk(delta, 120, codec.FrameTypeInter))
	require.Equal(t, codec.Geometry{Width: 64, Height: 80}, w.Geometry())

	require.NoError(t, w.Finish(codec.Rational{Num: 30000, Den: 1001}))
	buf := opener.Files[testPath].Bytes()

	require.Equal(t, "VP6F", fourCC(buf, strhOffset+12))
	require.Equal(t, "VP6F", fourCC(buf, strfOffset+24))

	require.Equal(t, uint32(64), le32(buf, avihWidthPos))
	require.Equal(t, uint32(80), le32(buf, avihHeightPos))
	require.Equal(t, uint16(64), le16(buf, strhFrameRightPos))
	require.Equal(t, uint16(80), le16(buf, strhFrameBottomPos))
	require.Equal(t, uint32(64), le32(buf, strfWidthPos))
	require.Equal(t, uint32(80), le32(buf, strfHeightPos))
	require.Equal(t, uint32(64*80*6), le32(buf, strfSizeImagePos))
	require.Equal(t, uint32(1001), le32(buf, strhScalePos))
	require.Equal(t, uint32(30000), le32(buf, strhRatePos))

	// The first byte of VP6 chunks is dropped.
	require.Equal(t, uint32(8), le32(buf, headerSize+4))
	require.Equal(t, delta[1:], buf[headerSize+8:headerSize+16])

	require.Equal(t,
		[]string{"Suggested cropping: 2 pixels from right, 4 pixels from bottom"},
		warns.Messages(),
	)
}

func TestAlpha(t *testing.T) {
	w, opener, _ := newTestWriter(t, codec.VP6Alpha)
	require.Len(t, opener.Files, 2)

	chunk := []byte{0, 0, 0, 10}
	for i := 0; i < 20; i++ {
		chunk = append(chunk, byte(i))
	}
	require.NoError(t, w.WriteChunk(chunk, 0, codec.FrameTypeKey))
	require.NoError(t, w.WriteChunk([]byte{1, 2}, 40, codec.FrameTypeInter))
	require.NoError(t, w.Finish(codec.Rational{Num: 25, Den: 1}))

	primary := opener.Files[testPath]
	alpha := opener.Files["/out/testalpha.avi"]
	require.True(t, primary.Closed())
	require.True(t, alpha.Closed())

	check := func(buf []byte, expected []byte) {
		require.Equal(t, "00dc", fourCC(buf, headerSize))
		require.Equal(t, uint32(10), le32(buf, headerSize+4))
		require.Equal(t, expected, buf[headerSize+8:headerSize+18])

		// Short chunk is stored empty.
		require.Equal(t, "00dc", fourCC(buf, headerSize+18))
		require.Equal(t, uint32(0), le32(buf, headerSize+22))

		require.Equal(t, uint32(2), le32(buf, avihTotalFramesPos))
		require.Equal(t, "idx1", fourCC(buf, headerSize+26))
	}
	check(primary.Bytes(), chunk[4:14])
	check(alpha.Bytes(), chunk[14:24])
}

func TestNewWriterErrors(t *testing.T) {
	t.Run("unsupportedCodec", func(t *testing.T) {
		opener := newMemOpener()
		open := func(path string) (File, error) {
			return opener.Open(path)
		}
		_, err := NewWriter(testPath, codec.AVC, nil, open)
		require.ErrorIs(t, err, ErrUnsupportedCodec)
		require.Empty(t, opener.Files)
	})
	t.Run("open", func(t *testing.T) {
		errOpen := errors.New("mock")
		open := func(path string) (File, error) {
			return nil, errOpen
		}
		_, err := NewWriter(testPath, codec.H263, nil, open)
		require.ErrorIs(t, err, errOpen)
	})
	t.Run("openAlpha", func(t *testing.T) {
		errOpen := errors.New("mock")
		opener := newMemOpener()
		open := func(path string) (File, error) {
			if path == AlphaPath(testPath) {
				return nil, errOpen
			}
			return opener.Open(path)
		}
		_, err := NewWriter(testPath, codec.VP6Alpha, nil, open)
		require.ErrorIs(t, err, errOpen)
		require.True(t, opener.Files[testPath].Closed())
	})
}

func TestH263Header(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w, _, warns := newTestWriter(t, codec.H263)
		valid := []byte{0x00, 0x00, 0x80, 0, 0, 0, 0, 0, 0, 0}
		require.NoError(t, w.WriteChunk(valid, 0, codec.FrameTypeKey))
		require.NoError(t, w.WriteChunk([]byte{1}, 40, codec.FrameTypeInter))
		require.Zero(t, warns.Len())
	})
	t.Run("invalid", func(t *testing.T) {
		w, _, warns := newTestWriter(t, codec.H263)
		require.NoError(t, w.WriteChunk([]byte{1, 2, 3}, 0, codec.FrameTypeKey))
		require.NoError(t, w.WriteChunk([]byte{1, 2, 3}, 40, codec.FrameTypeKey))
		require.Equal(t,
			[]string{"First frame has no valid H.263 picture header"},
			warns.Messages(),
		)
	})
}

func TestAlphaPath(t *testing.T) {
	require.Equal(t, "a/b/moviealpha.avi", AlphaPath("a/b/movie.avi"))
	require.Equal(t, "moviealpha.avi", AlphaPath("movie"))
}

func TestCreate(t *testing.T) {
	path := t.TempDir() + "/test.avi"
	w, err := Create(path, codec.H263, nil)
	require.NoError(t, err)
	require.NoError(t, w.WriteChunk([]byte{0x00, 0x00, 0x80, 0, 0, 0, 0, 0, 0, 0}, 0, codec.FrameTypeKey))
	require.NoError(t, w.Finish(codec.Rational{Num: 25, Den: 1}))
}
