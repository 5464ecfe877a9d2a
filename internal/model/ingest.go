package model

// IngestRequest is the wire shape of one intake batch. Unknown top-level or
// entry fields are tolerated for forward compatibility; decoding simply
// ignores them.
type IngestRequest struct {
	ClientID string        `json:"clientId"`
	Hostname string        `json:"hostname"`
	Version  string        `json:"version"`
	OS       string        `json:"os"`
	Logs     []IngestEntry `json:"logs"`
}

// IngestEntry is one log record as submitted by an agent.
type IngestEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger"`
	Message   string         `json:"message"`
	Module    string         `json:"module,omitempty"`
	Function  string         `json:"function,omitempty"`
	Line      int            `json:"line,omitempty"`
	Component string         `json:"component,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}
