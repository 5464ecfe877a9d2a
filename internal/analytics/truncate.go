package analytics

// Display lengths for messages rendered in summary views. The stored value
// is never truncated, only the returned view.
const (
	ListDisplayLen   = 100
	ThreatDisplayLen = 150
	AlertDisplayLen  = 200
)

// Truncate shortens s to at most max characters, appending an ellipsis
// marker when anything was cut. Truncation happens at rune boundaries so a
// multi-byte character is never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
