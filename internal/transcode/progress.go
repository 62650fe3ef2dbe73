package transcode

import (
	"math"
	"time"
)

// FilePercent converts an elapsed media position into a percentage of the
// input's duration, clamped to [0,100]. Unknown durations yield 0.
func FilePercent(elapsed time.Duration, totalSeconds float64) float64 {
	if totalSeconds <= 0 || math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) {
		return 0
	}
	pct := elapsed.Seconds() / totalSeconds * 100
	return clamp(pct)
}

// OverallPercent folds the current input's percentage into batch progress:
// round(index/total*100 + filePct/total), clamped to [0,100].
func OverallPercent(index, total int, filePct float64) int {
	if total <= 0 {
		return 0
	}
	if math.IsNaN(filePct) {
		filePct = 0
	}
	overall := float64(index)/float64(total)*100 + filePct/float64(total)
	return int(math.Round(clamp(overall)))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
