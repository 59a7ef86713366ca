package extract

import (
	"math"

	"flvextract/pkg/video/codec"
)

// FallbackFrameRate is used when the timestamps cannot tell the rate.
var FallbackFrameRate = codec.Rational{Num: 25, Den: 1}

// AverageFrameRate returns the frame rate over the whole timestamp span.
func AverageFrameRate(timestamps []uint32) codec.Rational {
	n := len(timestamps)
	if n < 2 || timestamps[n-1] <= timestamps[0] {
		return FallbackFrameRate
	}
	return averageRate(uint64(n-1), uint64(timestamps[n-1]-timestamps[0]))
}

// averageRate returns intervals*1000/spanMs reduced. Rates that do not
// fit in 32 bits after reducing lose precision.
func averageRate(intervals uint64, spanMs uint64) codec.Rational {
	num, den := intervals*1000, spanMs
	a, b := num, den
	for b != 0 {
		a, b = b, a%b
	}
	num, den = num/a, den/a

	for num > math.MaxUint32 || den > math.MaxUint32 {
		num >>= 1
		den >>= 1
	}
	if den == 0 {
		den = 1
	}
	return codec.Rational{Num: uint32(num), Den: uint32(den)}
}

// TrueFrameRate returns the rate of the most frequent frame
// interval, the shorter interval wins ties.
func TrueFrameRate(timestamps []uint32) codec.Rational {
	counts := make(map[uint32]int)
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] > timestamps[i-1] {
			counts[timestamps[i]-timestamps[i-1]]++
		}
	}

	var best uint32
	bestCount := 0
	for delta, count := range counts {
		if count > bestCount || (count == bestCount && delta < best) {
			best = delta
			bestCount = count
		}
	}
	if bestCount == 0 {
		return FallbackFrameRate
	}
	return codec.Rational{Num: 1000, Den: best}.Reduce()
}
