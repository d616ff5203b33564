// Package util holds small formatting helpers shared by the player views.
package util

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats d as m:ss, or h:mm:ss from one hour on. Negative
// durations format as zero.
func FormatDuration(d time.Duration) string {
	total := max(0, int(d.Seconds()))
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatPercent formats a gain or share as a whole percentage.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}
