package h264

import (
	"encoding/binary"
	"errors"
)

// ErrDecoderConfigTooShort record too short to hold the parameter set counts.
var ErrDecoderConfigTooShort = errors.New("decoder configuration record too short")

const decoderConfigMinSize = 6

// DecoderConfig AVC decoder configuration record.
type DecoderConfig struct {
	NALULengthSize int
	SPS            [][]byte
	PPS            [][]byte
}

// UnmarshalDecoderConfig decodes the parameter sets of a record.
// Parameter sets that do not fit in the buffer are dropped together
// with everything after them.
//
// Reference: ff_h264_decode_extradata from libavcodec.
func UnmarshalDecoderConfig(buf []byte) (DecoderConfig, error) {
	if len(buf) < decoderConfigMinSize {
		return DecoderConfig{}, ErrDecoderConfigTooShort
	}

	conf := DecoderConfig{
		NALULengthSize: int(buf[4]&0x03) + 1,
	}
	spsCount := int(buf[5] & 0x1f)
	ppsCount := -1
	pos := 6

	for pos <= len(buf)-2 {
		if spsCount == 0 && ppsCount == -1 {
			ppsCount = int(buf[pos])
			pos++
			continue
		}

		isSPS := spsCount > 0
		switch {
		case spsCount > 0:
			spsCount--
		case ppsCount > 0:
			ppsCount--
		default:
			return conf, nil
		}

		le := int(binary.BigEndian.Uint16(buf[pos:]))
		pos += 2
		if le > len(buf)-pos {
			return conf, nil
		}

		if isSPS {
			conf.SPS = append(conf.SPS, buf[pos:pos+le])
		} else {
			conf.PPS = append(conf.PPS, buf[pos:pos+le])
		}
		pos += le
	}
	return conf, nil
}

// NALUs returns the parameter sets, SPS first.
func (c DecoderConfig) NALUs() [][]byte {
	ret := make([][]byte, 0, len(c.SPS)+len(c.PPS))
	ret = append(ret, c.SPS...)
	return append(ret, c.PPS...)
}
