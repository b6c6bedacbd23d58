package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/metrics"
)

// EventHandler turns lifecycle events into log lines and counters.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleTransition(ctx context.Context, event events.Event) error {
	transition, ok := event.(*events.RequestTransitionEvent)
	if !ok {
		h.logger.Error("invalid event type for purchase request handler", "event_type", event.EventType())
		return fmt.Errorf("expected RequestTransitionEvent, got %T", event)
	}

	action := strings.TrimPrefix(transition.EventType(), "purchase_request.")
	metrics.RequestTransitions.WithLabelValues(action).Inc()
	h.logger.Info("purchase request transition",
		"request_id", transition.RequestID,
		"item_id", transition.ItemID,
		"qty", transition.Qty,
		"status", transition.Status,
		"actor_id", transition.ActorID,
		"event_id", transition.EventID())
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	types := []string{
		events.EventTypeRequestCreated,
		events.EventTypeRequestApproved,
		events.EventTypeRequestRejected,
	}
	for _, t := range types {
		eventBus.Subscribe(t, h.HandleTransition)
	}
	h.logger.Info("purchase request event handlers registered", "handlers", types)
}
