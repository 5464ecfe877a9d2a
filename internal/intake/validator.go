package intake

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avfleet/avfleet/internal/model"
)

// timestampLayouts are the ISO-8601 shapes agents are known to send.
// A timestamp without a zone designator is interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a valid ISO-8601 timestamp: %q", s)
}

// ValidateBatch checks one intake request against the required-field and
// enum constraints and converts it into persistable entries. Every violation
// across the whole batch is collected; any violation rejects the batch
// atomically. Unknown payload fields were already discarded by decoding and
// are never an error.
func ValidateBatch(req *model.IngestRequest) ([]*model.LogEntry, *model.ValidationError) {
	var details []model.FieldError
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			details = append(details, model.FieldError{Field: field, Detail: "is required"})
		}
	}

	require("clientId", req.ClientID)
	require("hostname", req.Hostname)
	require("version", req.Version)
	require("os", req.OS)

	if len(req.Logs) == 0 {
		details = append(details, model.FieldError{Field: "logs", Detail: "must contain at least 1 entry"})
		return nil, &model.ValidationError{Details: details}
	}

	entries := make([]*model.LogEntry, 0, len(req.Logs))
	for i, in := range req.Logs {
		prefix := fmt.Sprintf("logs[%d]", i)
		entry := &model.LogEntry{
			ClientID:  req.ClientID,
			EventID:   model.NextEventID(),
			Level:     in.Level,
			Logger:    in.Logger,
			Message:   in.Message,
			Module:    in.Module,
			Function:  in.Function,
			Line:      in.Line,
			Component: in.Component,
			Metadata:  in.Metadata,
		}

		if strings.TrimSpace(in.Timestamp) == "" {
			details = append(details, model.FieldError{Field: prefix + ".timestamp", Detail: "is required"})
		} else if ts, err := parseTimestamp(in.Timestamp); err != nil {
			details = append(details, model.FieldError{Field: prefix + ".timestamp", Detail: err.Error()})
		} else {
			entry.Timestamp = ts
		}

		if strings.TrimSpace(in.Level) == "" {
			details = append(details, model.FieldError{Field: prefix + ".level", Detail: "is required"})
		} else if !model.IsValidLevel(in.Level) {
			details = append(details, model.FieldError{
				Field:  prefix + ".level",
				Detail: fmt.Sprintf("must be one of %s", strings.Join(model.Levels, ", ")),
			})
		}

		if strings.TrimSpace(in.Logger) == "" {
			details = append(details, model.FieldError{Field: prefix + ".logger", Detail: "is required"})
		}
		if strings.TrimSpace(in.Message) == "" {
			details = append(details, model.FieldError{Field: prefix + ".message", Detail: "is required"})
		}

		if len(in.Metadata) > 0 {
			if data, err := json.Marshal(in.Metadata); err != nil {
				details = append(details, model.FieldError{Field: prefix + ".metadata", Detail: "is not serializable"})
			} else if len(data) > model.MaxMetadataBytes {
				details = append(details, model.FieldError{
					Field:  prefix + ".metadata",
					Detail: fmt.Sprintf("exceeds %d byte limit", model.MaxMetadataBytes),
				})
			}
		}

		entries = append(entries, entry)
	}

	if len(details) > 0 {
		return nil, &model.ValidationError{Details: details}
	}
	return entries, nil
}
