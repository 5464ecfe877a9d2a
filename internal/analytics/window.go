package analytics

import "time"

// DefaultTimeframe is used when a caller omits or misspells the token.
const DefaultTimeframe = "24h"

// timeframes maps the accepted timeframe tokens to window lengths.
var timeframes = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// Window is a request-scoped [Start, End] time range. It parameterizes
// aggregation queries and has no lifecycle of its own.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow turns a timeframe token into a concrete window ending now.
// Unknown tokens fall back to the 24h default, mirroring how the dashboard
// treats a bad query parameter as "show me the default view".
func ResolveWindow(timeframe string, now time.Time) (Window, string) {
	d, ok := timeframes[timeframe]
	if !ok {
		timeframe = DefaultTimeframe
		d = timeframes[DefaultTimeframe]
	}
	return Window{Start: now.Add(-d), End: now}, timeframe
}

// Previous returns the window of equal length immediately preceding w.
func (w Window) Previous() Window {
	length := w.End.Sub(w.Start)
	return Window{Start: w.Start.Add(-length), End: w.Start}
}

// Duration returns the window's length.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
