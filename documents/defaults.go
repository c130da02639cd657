package documents

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const DateLayout = "02/01/06" // dd/mm/yy

// DefaultNumber e.g. "KMJ-472". rng may be nil.
func DefaultNumber(prefix string, rng *rand.Rand) string {
	var n int
	if rng != nil {
		n = 100 + rng.IntN(900)
	} else {
		n = 100 + rand.IntN(900)
	}
	return FormatNumber(prefix, int64(n))
}

// FormatNumber pads seq to at least three digits
func FormatNumber(prefix string, seq int64) string {
	if prefix == "" {
		return fmt.Sprintf("%03d", seq)
	}
	return fmt.Sprintf("%s-%03d", prefix, seq)
}

func DefaultDate(now time.Time) string {
	return now.Format(DateLayout)
}
