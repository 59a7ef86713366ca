package h264

// StartCode precedes every NALU in the Annex-B stream format.
var StartCode = []byte{0x00, 0x00, 0x00, 0x01}

func annexBEncodeSize(nalus [][]byte) int {
	n := 0
	for _, nalu := range nalus {
		n += len(StartCode) + len(nalu)
	}
	return n
}

// AnnexBEncode encodes NALUs into the Annex-B stream format.
func AnnexBEncode(nalus [][]byte) []byte {
	buf := make([]byte, annexBEncodeSize(nalus))
	pos := 0

	for _, nalu := range nalus {
		pos += copy(buf[pos:], StartCode)
		pos += copy(buf[pos:], nalu)
	}

	return buf
}
