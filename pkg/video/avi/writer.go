// Package avi writes FLV video streams into AVI files.
package avi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"flvextract/pkg/video/codec"
	"flvextract/pkg/video/riff"
	"flvextract/pkg/warnings"
)

// File output file.
type File interface {
	io.WriteSeeker
	io.Closer
}

// OpenFunc creates an output file.
type OpenFunc func(path string) (File, error)

func createFile(path string) (File, error) {
	return os.Create(path)
}

// ErrUnsupportedCodec codec cannot be stored in an AVI file.
var ErrUnsupportedCodec = errors.New("unsupported video codec")

type indexEntry struct {
	flags  uint32
	offset uint32
	length uint32
}

// Writer writes a single video stream into an AVI file. Header fields
// are zero until Finish patches them.
type Writer struct {
	out      File
	w        *riff.Writer
	codec    codec.Codec
	warnings *warnings.List

	isAlpha bool
	alpha   *Writer

	geometry     codec.Geometry
	frameCount   uint32
	index        []indexEntry
	moviDataSize uint32
}

// Create creates the file at path and writes the header. VP6Alpha
// streams also create a second file for the alpha channel.
func Create(path string, c codec.Codec, warns *warnings.List) (*Writer, error) {
	return NewWriter(path, c, warns, createFile)
}

// NewWriter same as Create with a custom file opener.
func NewWriter(path string, c codec.Codec, warns *warnings.List, open OpenFunc) (*Writer, error) {
	return newWriter(path, c, warns, open, false)
}

func newWriter(
	path string,
	c codec.Codec,
	warns *warnings.List,
	open OpenFunc,
	isAlpha bool,
) (*Writer, error) {
	if c.FourCC() == "" {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCodec, c)
	}

	out, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	w := &Writer{
		out:      out,
		w:        riff.NewWriter(out),
		codec:    c,
		warnings: warns,
		isAlpha:  isAlpha,
	}

	if c.HasAlpha() && !isAlpha {
		w.alpha, err = newWriter(AlphaPath(path), c, warns, open, true)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("alpha writer: %w", err)
		}
	}

	if err := w.writeHeader(); err != nil {
		w.close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return w, nil
}

// AlphaPath returns the path of the alpha channel file.
func AlphaPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + alphaPathSuffix
}

func (w *Writer) writeHeader() error {
	fourCC := w.codec.FourCC()
	bw := w.w

	bw.TryWriteFourCC("RIFF")
	bw.TryWriteUint32(0) // Size.
	bw.TryWriteFourCC("AVI ")

	bw.TryWriteFourCC("LIST")
	bw.TryWriteUint32(hdrlListSize)
	bw.TryWriteFourCC("hdrl")

	bw.TryWriteFourCC("avih")
	bw.TryWriteUint32(avihSize)
	bw.TryWriteUint32s(
		0, // Micro seconds per frame.
		0, // Max bytes per second.
		0, // Padding granularity.
		avifHasIndex,
		0, // Total frames.
		0, // Initial frames.
		1, // Streams.
		0, // Suggested buffer size.
		0, // Width.
		0, // Height.
	)
	bw.TryWriteUint32s(0, 0, 0, 0) // Reserved.

	bw.TryWriteFourCC("LIST")
	bw.TryWriteUint32(strlListSize)
	bw.TryWriteFourCC("strl")

	bw.TryWriteFourCC("strh")
	bw.TryWriteUint32(strhSize)
	bw.TryWriteFourCC("vids")
	bw.TryWriteFourCC(fourCC)
	bw.TryWriteUint32s(
		0, // Flags.
		0, // Priority and language.
		0, // Initial frames.
		0, // Scale, frame rate denominator.
		0, // Rate, frame rate numerator.
		0, // Start.
		0, // Length, frame count.
		0, // Suggested buffer size.
	)
	bw.TryWriteInt32(-1) // Quality.
	bw.TryWriteUint32(0) // Sample size.
	bw.TryWriteUint16(0) // Frame left.
	bw.TryWriteUint16(0) // Frame top.
	bw.TryWriteUint16(0) // Frame right, width.
	bw.TryWriteUint16(0) // Frame bottom, height.

	bw.TryWriteFourCC("strf")
	bw.TryWriteUint32(strfSize)
	bw.TryWriteUint32(strfSize) // Bitmap info header size.
	bw.TryWriteUint32(0)        // Width.
	bw.TryWriteUint32(0)        // Height.
	bw.TryWriteUint16(1)        // Planes.
	bw.TryWriteUint16(24)       // Bit count.
	bw.TryWriteFourCC(fourCC)
	bw.TryWriteUint32s(
		0, // Image size.
		0, // X pixels per meter.
		0, // Y pixels per meter.
		0, // Colors used.
		0, // Colors important.
	)

	bw.TryWriteFourCC("LIST")
	bw.TryWriteUint32(0) // Size.
	bw.TryWriteFourCC("movi")

	return bw.TryError
}

// WriteChunk writes one frame. Chunks that are too short to hold a
// payload are stored as empty frames.
func (w *Writer) WriteChunk(chunk []byte, timestamp uint32, frameType codec.FrameType) error {
	offset, length := codec.PayloadRange(w.codec, chunk, w.isAlpha)

	var flags uint32
	if frameType.IsKey() {
		flags = aviifKeyframe
	}
	w.index = append(w.index, indexEntry{
		flags:  flags,
		offset: w.moviDataSize + 4,
		length: uint32(length),
	})

	if w.frameCount == 0 && w.codec == codec.H263 && !codec.ValidH263Header(chunk) {
		w.warn("First frame has no valid H.263 picture header")
	}
	if !w.geometry.Known() {
		w.inspect(chunk)
	}

	bw := w.w
	bw.TryWriteFourCC(frameChunkID)
	bw.TryWriteInt32(int32(length))
	bw.TryWrite(chunk[offset : offset+length])

	size := uint32(length)
	if size%2 != 0 {
		bw.TryWriteByte(0)
		size++
	}
	if bw.TryError != nil {
		return fmt.Errorf("write frame: %w", bw.TryError)
	}

	w.moviDataSize += size + chunkHeaderSize
	w.frameCount++

	if w.alpha != nil {
		if err := w.alpha.WriteChunk(chunk, timestamp, frameType); err != nil {
			return fmt.Errorf("alpha: %w", err)
		}
	}
	return nil
}

func (w *Writer) inspect(chunk []byte) {
	geometry, hint := codec.Inspect(w.codec, chunk, w.isAlpha)
	if geometry.Known() {
		w.geometry = geometry
	}
	if hint != nil {
		w.warn(hint.String())
	}
}

func (w *Writer) warn(msg string) {
	if w.warnings != nil {
		w.warnings.Add("%v", msg)
	}
}

type patch struct {
	pos   int64
	size  int
	value uint32
}

// Finish writes the index, patches the header and closes the file.
// The Writer cannot be used afterwards.
func (w *Writer) Finish(averageFrameRate codec.Rational) error {
	err := w.finish(averageFrameRate)
	if closeErr := w.out.Close(); err == nil {
		err = closeErr
	}

	if w.alpha != nil {
		alpha := w.alpha
		w.alpha = nil
		if alphaErr := alpha.Finish(averageFrameRate); alphaErr != nil && err == nil {
			err = fmt.Errorf("alpha: %w", alphaErr)
		}
	}
	return err
}

func (w *Writer) finish(rate codec.Rational) error {
	indexChunkSize, err := w.writeIndex()
	if err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	width := uint32(w.geometry.Width)
	height := uint32(w.geometry.Height)

	patches := []patch{
		{riffSizePos, 4, headerSize + w.moviDataSize + indexChunkSize - chunkHeaderSize},
		{avihMicroSecPerFrame, 4, 0},
		{avihTotalFramesPos, 4, w.frameCount},
		{avihWidthPos, 4, width},
		{avihHeightPos, 4, height},
		{strhScalePos, 4, rate.Den},
		{strhRatePos, 4, rate.Num},
		{strhLengthPos, 4, w.frameCount},
		{strhFrameRightPos, 2, width},
		{strhFrameBottomPos, 2, height},
		{strfWidthPos, 4, width},
		{strfHeightPos, 4, height},
		{strfSizeImagePos, 4, width * height * 6},
		{moviSizePos, 4, w.moviDataSize + 4},
	}
	for _, p := range patches {
		if _, err := w.out.Seek(p.pos, io.SeekStart); err != nil {
			return fmt.Errorf("seek: %w", err)
		}
		if p.size == 2 {
			w.w.TryWriteUint16(uint16(p.value))
		} else {
			w.w.TryWriteUint32(p.value)
		}
		if w.w.TryError != nil {
			return fmt.Errorf("patch header: %w", w.w.TryError)
		}
	}
	return nil
}

func (w *Writer) writeIndex() (uint32, error) {
	indexDataSize := uint32(len(w.index)) * indexEntrySize

	bw := w.w
	bw.TryWriteFourCC("idx1")
	bw.TryWriteUint32(indexDataSize)
	for _, e := range w.index {
		bw.TryWriteFourCC(frameChunkID)
		bw.TryWriteUint32s(e.flags, e.offset, e.length)
	}
	return indexDataSize + chunkHeaderSize, bw.TryError
}

// close abandons the writer without finishing the files.
func (w *Writer) close() {
	w.out.Close()
	if w.alpha != nil {
		w.alpha.close()
		w.alpha = nil
	}
}

// Geometry returns the detected frame size.
func (w *Writer) Geometry() codec.Geometry {
	return w.geometry
}

// FrameCount returns the number of written frames.
func (w *Writer) FrameCount() int {
	return int(w.frameCount)
}
