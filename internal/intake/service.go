package intake

import (
	"fmt"
	"log"

	"github.com/avfleet/avfleet/internal/model"
)

// Publisher receives notifications about accepted batches and derived
// alerts, for push delivery to subscribed dashboards.
type Publisher interface {
	PublishBatch(client model.Client, accepted int)
	PublishAlert(a *model.Alert)
}

// Service validates intake batches and drives the persistence sequence:
// client upsert, entry insert, alert derivation. Each call is independent;
// the store is the only synchronization point.
type Service struct {
	registry model.ClientRegistry
	logs     model.LogWriter
	alerts   model.AlertWriter
	events   Publisher // nil when push is disabled
}

// NewService wires an intake service over the given store facets.
func NewService(registry model.ClientRegistry, logs model.LogWriter, alerts model.AlertWriter, events Publisher) *Service {
	return &Service{
		registry: registry,
		logs:     logs,
		alerts:   alerts,
		events:   events,
	}
}

// Ingest processes one batch and returns the number of entries stored.
// A validation failure rejects the whole batch; nothing is persisted.
// The client upsert completes before entries are inserted since entries
// reference the client. Alert persistence is best-effort: a failed alert
// is logged and skipped, never aborting the batch.
func (s *Service) Ingest(req *model.IngestRequest) (int, error) {
	entries, verr := ValidateBatch(req)
	if verr != nil {
		return 0, verr
	}

	client, err := s.registry.UpsertClient(req.ClientID, req.Hostname, req.Version, req.OS)
	if err != nil {
		return 0, fmt.Errorf("upsert client: %w", err)
	}

	stored, err := s.logs.InsertLogBatch(entries)
	if err != nil {
		return 0, fmt.Errorf("insert log batch: %w", err)
	}

	for _, alert := range DeriveAlerts(entries) {
		if err := s.alerts.InsertAlert(alert); err != nil {
			log.Printf("intake: skipping alert for event %s: %v", alert.LogEventID, err)
			continue
		}
		if s.events != nil {
			s.events.PublishAlert(alert)
		}
	}

	if s.events != nil {
		s.events.PublishBatch(client, stored)
	}
	return stored, nil
}
