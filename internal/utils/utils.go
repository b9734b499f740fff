package utils

import "fmt"

// FormatFileSize converts bytes to human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d Bytes", size)
	}
	units := []string{"KB", "MB", "GB", "TB", "PB"}
	value := float64(size) / unit
	idx := 0
	for value >= unit && idx < len(units)-1 {
		value /= unit
		idx++
	}
	return fmt.Sprintf("%.2f %s", value, units[idx])
}
