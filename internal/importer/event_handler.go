package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/metrics"
)

type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleCatalogImported(ctx context.Context, event events.Event) error {
	imported, ok := event.(*events.CatalogImportedEvent)
	if !ok {
		h.logger.Error("invalid event type for catalog import handler", "event_type", event.EventType())
		return fmt.Errorf("expected CatalogImportedEvent, got %T", event)
	}

	metrics.ObserveImport(imported.Target, imported.Upserted+imported.Matched, imported.Failed)
	h.logger.Info("catalog import recorded",
		"target", imported.Target,
		"search", imported.Search,
		"upserted", imported.Upserted,
		"matched", imported.Matched,
		"failed", imported.Failed,
		"event_id", imported.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeCatalogImported, h.HandleCatalogImported)
}
