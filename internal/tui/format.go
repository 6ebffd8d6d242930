package tui

import "fmt"

// formatBytes renders a byte count in human-readable units.
func formatBytes(n float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if n < 1024 {
			return fmt.Sprintf("%.1f%s", n, unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%.1fTB", n)
}

// formatRate renders a bytes-per-second rate.
func formatRate(bytesPerSec float64) string {
	return formatBytes(bytesPerSec) + "/s"
}
