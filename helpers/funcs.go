package helpers

import (
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// IntervalToDuration parses a candle interval string like "15m" or "1h".
func IntervalToDuration(interval string) (time.Duration, error) {
	return str2duration.ParseDuration(interval)
}

// IntervalToSeconds is IntervalToDuration in whole seconds, zero on a bad
// interval string.
func IntervalToSeconds(interval string) int {
	duration, err := str2duration.ParseDuration(interval)
	if err != nil {
		return 0
	}
	return int(duration.Seconds())
}

func PositiveNegativeRatio(list []float64) float64 {
	countPositive := 0
	countNegative := 0
	for _, item := range list {
		if item > 0 {
			countPositive++
		} else {
			countNegative++
		}
	}

	if countNegative == 0 {
		return 0
	}
	return float64(countPositive) / float64(countNegative)
}
