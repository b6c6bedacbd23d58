package dbaudit

import (
	"context"
	"fmt"
	"log/slog"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/metrics"
)

type RepositoryAPI interface {
	Create(ctx context.Context, rec *auditDatamodel.DbRequestHistory) error
	List(ctx context.Context, q ListQuery) ([]*auditDatamodel.DbRequestHistory, int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns the most recent audit rows first.
func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize()
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	results := make([]*Record, 0, len(rows))
	for _, row := range rows {
		results = append(results, FromDataModel(row))
	}
	return &ListResult{Total: total, Limit: q.Limit, Skip: q.Skip, Results: results}, nil
}

// HandleRequestLogged persists one audit record. Failures are logged and
// counted; the request that produced the record has already been answered.
func (s *Service) HandleRequestLogged(ctx context.Context, event events.Event) error {
	logged, ok := event.(*events.DbRequestLoggedEvent)
	if !ok {
		s.logger.Error("invalid event type for audit handler", "event_type", event.EventType())
		return fmt.Errorf("expected DbRequestLoggedEvent, got %T", event)
	}
	rec, ok := logged.Record.(*auditDatamodel.DbRequestHistory)
	if !ok || rec == nil {
		return fmt.Errorf("unexpected audit record %T", logged.Record)
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		metrics.AuditWrites.WithLabelValues("failed").Inc()
		s.logger.Warn("db request logger failed",
			"method", rec.Method,
			"path", rec.Path,
			"error", err)
		return nil
	}
	metrics.AuditWrites.WithLabelValues("ok").Inc()
	return nil
}

func (s *Service) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeDbRequestLogged, s.HandleRequestLogged)
}
