package model

import "time"

// Shared defaults used across the service.
const (
	// DefaultPageLimit is the page size when the caller does not specify one.
	DefaultPageLimit = 100
	// MaxPageLimit is the hard cap on requested page sizes.
	MaxPageLimit = 1000
	// OnlineThreshold is how recent lastSeen must be for a client to count
	// as online. Liveness is derived at read time, never stored.
	OnlineThreshold = 5 * time.Minute
	// MaxMetadataBytes caps the serialized size of one entry's metadata.
	MaxMetadataBytes = 64 << 10
)
