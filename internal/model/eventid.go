package model

import (
	"fmt"
	"sync/atomic"
	"time"
)

var eventIDCounter atomic.Uint64

// NextEventID returns a process-unique identifier for one log entry.
// Intake assigns these before insert so derived alerts can reference their
// triggering entry directly instead of matching on timestamp and message.
func NextEventID() string {
	n := eventIDCounter.Add(1)
	return fmt.Sprintf("%x-%x", time.Now().UTC().UnixNano(), n)
}
