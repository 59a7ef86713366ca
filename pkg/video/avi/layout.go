package avi

// The header has a fixed size so every field that is only known after
// the last frame can be patched in place.
//
// Chunk:            Offset:  Size:
//
// RIFF AVI             0      12
//   LIST hdrl         12      12
//     avih            24      64
//     LIST strl       88      12
//       strh         100      64
//       strf         164      48
//   LIST movi        212      12
//     00dc (frames)  224      ...
//   idx1             ...      ...

const (
	avihOffset = 24
	strhOffset = 100
	strfOffset = 164
	moviOffset = 212
	headerSize = 224

	chunkHeaderSize = 8
	indexEntrySize  = 16

	hdrlListSize = 192
	strlListSize = 116
	avihSize     = 56
	strhSize     = 56
	strfSize     = 40
)

// Backpatched field positions.
const (
	riffSizePos          = 4
	avihMicroSecPerFrame = avihOffset + chunkHeaderSize
	avihTotalFramesPos   = avihOffset + chunkHeaderSize + 16
	avihWidthPos         = avihOffset + chunkHeaderSize + 32
	avihHeightPos        = avihOffset + chunkHeaderSize + 36
	strhScalePos         = strhOffset + 28
	strhRatePos          = strhOffset + 32
	strhLengthPos        = strhOffset + 40
	strhFrameRightPos    = strhOffset + 60
	strhFrameBottomPos   = strhOffset + 62
	strfWidthPos         = strfOffset + 12
	strfHeightPos        = strfOffset + 16
	strfSizeImagePos     = strfOffset + 28
	moviSizePos          = moviOffset + 4
)

const (
	avifHasIndex    = 0x10
	aviifKeyframe   = 0x10
	frameChunkID    = "00dc"
	alphaPathSuffix = "alpha.avi"
)
