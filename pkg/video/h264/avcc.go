// Package h264 converts between H264 NALU framings.
package h264

func readLength(buf []byte, size int) int {
	n := 0
	for _, b := range buf[:size] {
		n = n<<8 | int(b)
	}
	return n
}

// AVCCUnmarshalPartial decodes NALUs prefixed with big-endian lengths of
// lengthSize bytes. Decoding stops at the first NALU that does not fit
// in the buffer, the NALUs before it are returned.
func AVCCUnmarshalPartial(buf []byte, lengthSize int) [][]byte {
	if lengthSize < 1 || lengthSize > 4 {
		return nil
	}

	var ret [][]byte
	pos := 0
	for pos <= len(buf)-lengthSize {
		le := readLength(buf[pos:], lengthSize)
		pos += lengthSize

		if le > len(buf)-pos {
			break
		}
		ret = append(ret, buf[pos:pos+le])
		pos += le
	}
	return ret
}
