package console

import (
	"fmt"
	"strings"
)

// FormatFileSize renders a byte count in human readable units.
func FormatFileSize(sizeBytes float64) string {
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if sizeBytes < 1024.0 {
			return fmt.Sprintf("%.1f %s", sizeBytes, unit)
		}
		sizeBytes /= 1024.0
	}
	return fmt.Sprintf("%.1f PB", sizeBytes)
}

// FormatDuration renders a duration in seconds as seconds, minutes, or
// hours depending on magnitude.
func FormatDuration(seconds float64) string {
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.1fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

// ProgressBar renders a text progress bar of the given width. A zero
// total counts as no progress.
func ProgressBar(current, total, width int) string {
	progress := 0.0
	if total != 0 {
		progress = float64(current) / float64(total)
	}

	filled := int(float64(width) * progress)
	if filled < 0 {
		filled = 0
	}
	rest := width - filled
	if rest < 0 {
		rest = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", rest)
	return fmt.Sprintf("[%s] %.1f%% (%d/%d)", bar, progress*100, current, total)
}
