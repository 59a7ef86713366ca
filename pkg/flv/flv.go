// Package flv reads FLV files tag by tag.
package flv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"flvextract/pkg/video/codec"
)

// TagType FLV tag type.
type TagType uint8

// Tag types.
const (
	TagTypeAudio  TagType = 8
	TagTypeVideo  TagType = 9
	TagTypeScript TagType = 18
)

const (
	signature     = "FLV"
	headerSize    = 9
	tagHeaderSize = 11
	prevSizeSize  = 4

	flagAudio = 0x04
	flagVideo = 0x01
)

// Errors.
var (
	ErrInvalidSignature = errors.New("invalid FLV signature")
	ErrInvalidHeader    = errors.New("invalid FLV header")
	ErrTruncated        = errors.New("truncated tag")
	ErrEmptyVideoTag    = errors.New("empty video tag")
)

// Header FLV file header.
type Header struct {
	Version    uint8
	HasAudio   bool
	HasVideo   bool
	DataOffset uint32
}

// Marshal header followed by the first previous tag size.
func (h Header) Marshal() []byte {
	dataOffset := h.DataOffset
	if dataOffset < headerSize {
		dataOffset = headerSize
	}
	buf := make([]byte, int(dataOffset)+prevSizeSize)
	copy(buf, signature)
	buf[3] = h.Version

	if h.HasAudio {
		buf[4] |= flagAudio
	}
	if h.HasVideo {
		buf[4] |= flagVideo
	}
	binary.BigEndian.PutUint32(buf[5:], dataOffset)
	return buf
}

// Tag FLV tag.
type Tag struct {
	Type      TagType
	Timestamp uint32 // Milliseconds.
	StreamID  uint32
	Data      []byte
}

// Marshal tag followed by its previous tag size.
func (t Tag) Marshal() []byte {
	size := len(t.Data)
	buf := make([]byte, tagHeaderSize+size+prevSizeSize)

	buf[0] = byte(t.Type)
	putUint24(buf[1:], uint32(size))
	putUint24(buf[4:], t.Timestamp)
	buf[7] = byte(t.Timestamp >> 24) // Extended.
	putUint24(buf[8:], t.StreamID)
	copy(buf[tagHeaderSize:], t.Data)
	binary.BigEndian.PutUint32(buf[tagHeaderSize+size:], uint32(tagHeaderSize+size))
	return buf
}

func putUint24(buf []byte, v uint32) {
	buf[0] = byte(v >> 16)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v)
}

func uint24(buf []byte) uint32 {
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}

// Reader reads tags from a FLV file.
type Reader struct {
	r      io.Reader
	pos    int64
	Header Header
}

// NewReader reads the file header and returns a Reader
// positioned at the first tag.
func NewReader(r io.Reader) (*Reader, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if string(buf[:3]) != signature {
		return nil, ErrInvalidSignature
	}

	h := Header{
		Version:    buf[3],
		HasAudio:   buf[4]&flagAudio != 0,
		HasVideo:   buf[4]&flagVideo != 0,
		DataOffset: binary.BigEndian.Uint32(buf[5:]),
	}
	if h.DataOffset < headerSize {
		return nil, fmt.Errorf("%w: data offset %d", ErrInvalidHeader, h.DataOffset)
	}

	skip := int64(h.DataOffset) - headerSize + prevSizeSize
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return nil, fmt.Errorf("skip to first tag: %w", err)
	}

	return &Reader{
		r:      r,
		pos:    int64(h.DataOffset) + prevSizeSize,
		Header: h,
	}, nil
}

// ReadTag returns the next tag, io.EOF after the last tag.
func (r *Reader) ReadTag() (*Tag, error) {
	hdr := make([]byte, tagHeaderSize)
	_, err := io.ReadFull(r.r, hdr)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: header at %d", ErrTruncated, r.pos)
	}
	if err != nil {
		return nil, err
	}

	tag := &Tag{
		Type:      TagType(hdr[0]),
		Timestamp: uint24(hdr[4:]) | uint32(hdr[7])<<24,
		StreamID:  uint24(hdr[8:]),
		Data:      make([]byte, uint24(hdr[1:])),
	}
	if _, err := io.ReadFull(r.r, tag.Data); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: data at %d", ErrTruncated, r.pos)
		}
		return nil, err
	}

	// A missing trailing size only matters if another tag follows.
	prevSize := make([]byte, prevSizeSize)
	_, err = io.ReadFull(r.r, prevSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}

	r.pos += int64(tagHeaderSize + len(tag.Data) + prevSizeSize)
	return tag, nil
}

// VideoTag payload of a video tag.
type VideoTag struct {
	FrameType codec.FrameType
	Codec     codec.Codec
	Chunk     []byte
}

// ParseVideoTag splits the video tag header from the codec chunk.
func ParseVideoTag(data []byte) (VideoTag, error) {
	if len(data) < 1 {
		return VideoTag{}, ErrEmptyVideoTag
	}
	return VideoTag{
		FrameType: codec.FrameType(data[0] >> 4),
		Codec:     codec.Codec(data[0] & 0x0f),
		Chunk:     data[1:],
	}, nil
}
