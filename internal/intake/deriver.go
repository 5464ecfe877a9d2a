package intake

import (
	"fmt"

	"github.com/avfleet/avfleet/internal/model"
)

// DeriveAlerts synthesizes alerts for every ERROR and CRITICAL entry in a
// validated batch. CRITICAL maps to a CRITICAL alert, ERROR to HIGH. The
// title names the component when present, the logger otherwise; the
// description carries the full message untruncated — display truncation is
// a presentation concern.
func DeriveAlerts(entries []*model.LogEntry) []*model.Alert {
	var alerts []*model.Alert
	for _, e := range entries {
		severity, ok := model.AlertSeverityFor(e.Level)
		if !ok {
			continue
		}

		source := e.Component
		if source == "" {
			source = e.Logger
		}

		alerts = append(alerts, &model.Alert{
			LogEventID:  e.EventID,
			Severity:    severity,
			Title:       fmt.Sprintf("%s: %s", e.Level, source),
			Description: e.Message,
		})
	}
	return alerts
}
