// Package riff writes little-endian RIFF primitives.
package riff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidFourCC fourCC is not 4 bytes long.
var ErrInvalidFourCC = errors.New("invalid fourCC length")

// Writer is the RIFF writer implementation.
type Writer struct {
	out io.Writer

	// TryError holds the first error occurred in TryXXX() methods.
	TryError error
}

// NewWriter returns a new Writer using the specified io.Writer as the output.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

// WriteByte implements io.ByteWriter.
func (w *Writer) WriteByte(b byte) error {
	_, err := w.out.Write([]byte{b})
	return err
}

// WriteFourCC writes a four character code.
func (w *Writer) WriteFourCC(fourCC string) error {
	if len(fourCC) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidFourCC, fourCC)
	}
	_, err := w.Write([]byte(fourCC))
	return err
}

// WriteUint16 writes 16 bits.
func (w *Writer) WriteUint16(r uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], r)
	_, err := w.Write(buf[:])
	return err
}

// WriteUint32 writes 32 bits.
func (w *Writer) WriteUint32(r uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], r)
	_, err := w.Write(buf[:])
	return err
}

// WriteInt32 writes 32 bits, two's complement.
func (w *Writer) WriteInt32(r int32) error {
	return w.WriteUint32(uint32(r))
}

// TryWrite tries to write len(p) bytes.
func (w *Writer) TryWrite(p []byte) {
	if w.TryError == nil {
		_, w.TryError = w.Write(p)
	}
}

// TryWriteByte tries to write 1 byte.
func (w *Writer) TryWriteByte(b byte) {
	if w.TryError == nil {
		w.TryError = w.WriteByte(b)
	}
}

// TryWriteFourCC tries to write a four character code.
func (w *Writer) TryWriteFourCC(fourCC string) {
	if w.TryError == nil {
		w.TryError = w.WriteFourCC(fourCC)
	}
}

// TryWriteUint16 tries to write 16 bits.
func (w *Writer) TryWriteUint16(r uint16) {
	if w.TryError == nil {
		w.TryError = w.WriteUint16(r)
	}
}

// TryWriteUint32 tries to write 32 bits.
func (w *Writer) TryWriteUint32(r uint32) {
	if w.TryError == nil {
		w.TryError = w.WriteUint32(r)
	}
}

// TryWriteInt32 tries to write 32 bits.
func (w *Writer) TryWriteInt32(r int32) {
	if w.TryError == nil {
		w.TryError = w.WriteInt32(r)
	}
}

// TryWriteUint32s tries to write every value in order.
func (w *Writer) TryWriteUint32s(values ...uint32) {
	for _, v := range values {
		w.TryWriteUint32(v)
	}
}
