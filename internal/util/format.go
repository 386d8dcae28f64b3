package util

import (
	"fmt"
	"time"
)

// FormatBytes renders a size for log lines, e.g. "1.5 KB".
func FormatBytes(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}

	value := float64(size)
	for _, unit := range []string{"KB", "MB", "GB", "TB", "PB"} {
		value /= 1024
		if value < 1024 || unit == "PB" {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
	}

	return fmt.Sprintf("%d B", size)
}

// FormatDuration renders an elapsed time to the second: "45s", "2m30s", "1h30m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d/time.Minute), int(d%time.Minute/time.Second))
	default:
		return fmt.Sprintf("%dh%dm", int(d/time.Hour), int(d%time.Hour/time.Minute))
	}
}
