// Package rawh264 writes FLV H264 streams as raw Annex-B elementary streams.
package rawh264

import (
	"fmt"
	"io"
	"os"

	"flvextract/pkg/video/codec"
	"flvextract/pkg/video/h264"
)

const (
	avcPacketTypeSequenceHeader = 0

	// AVCPacketType and composition time.
	chunkHeaderSize = 4

	defaultNALULengthSize = 4
)

// Writer converts length-prefixed NALUs into start code delimited NALUs.
type Writer struct {
	out io.WriteCloser

	// Learned from the sequence header.
	nalLengthSize int
}

// Create creates the file at path.
func Create(path string) (*Writer, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return NewWriter(out), nil
}

// NewWriter returns a Writer that writes to out.
func NewWriter(out io.WriteCloser) *Writer {
	return &Writer{out: out}
}

// WriteChunk writes the NALUs of a sequence header or frame chunk.
// Malformed chunks are written up to the first NALU that does not fit.
func (w *Writer) WriteChunk(chunk []byte, _ uint32, _ codec.FrameType) error {
	if len(chunk) < chunkHeaderSize {
		return nil
	}

	var nalus [][]byte
	if chunk[0] == avcPacketTypeSequenceHeader {
		conf, err := h264.UnmarshalDecoderConfig(chunk[chunkHeaderSize:])
		if err != nil {
			return nil
		}
		w.nalLengthSize = conf.NALULengthSize
		nalus = conf.NALUs()
	} else {
		// Only 2 byte lengths are honored, anything else is read as 4 bytes.
		if w.nalLengthSize != 2 {
			w.nalLengthSize = defaultNALULengthSize
		}
		nalus = h264.AVCCUnmarshalPartial(chunk[chunkHeaderSize:], w.nalLengthSize)
	}

	if len(nalus) == 0 {
		return nil
	}
	if _, err := w.out.Write(h264.AnnexBEncode(nalus)); err != nil {
		return fmt.Errorf("write nalus: %w", err)
	}
	return nil
}

// Finish closes the output, the frame rate is not stored.
func (w *Writer) Finish(codec.Rational) error {
	return w.out.Close()
}

// NALULengthSize returns the length prefix size used for frames.
func (w *Writer) NALULengthSize() int {
	return w.nalLengthSize
}
