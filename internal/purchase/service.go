package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	purchaseDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/purchase"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/item"
	"github.com/frahmantamala/inventory-management/internal/user"
)

type RepositoryAPI interface {
	Create(ctx context.Context, r *purchaseDatamodel.PurchaseRequest, h *purchaseDatamodel.RequestHistory) error
	GetByID(ctx context.Context, id int64) (*purchaseDatamodel.PurchaseRequest, error)
	List(ctx context.Context, f Filter) ([]*purchaseDatamodel.PurchaseRequest, error)
	Approve(ctx context.Context, id, actorID int64, at time.Time) (*purchaseDatamodel.PurchaseRequest, error)
	Reject(ctx context.Context, id, actorID int64, message string, at time.Time) (*purchaseDatamodel.PurchaseRequest, error)
	History(ctx context.Context, requestID int64) ([]*purchaseDatamodel.RequestHistory, error)
}

type ItemReader interface {
	GetByID(ctx context.Context, id int64) (*item.Item, error)
}

type UserDirectory interface {
	Summaries(ctx context.Context, ids []int64) (map[int64]*user.Summary, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	items     ItemReader
	users     UserDirectory
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, items ItemReader, users UserDirectory, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create files a pending request for an existing item and records the
// creation in the request's history.
func (s *Service) Create(ctx context.Context, actor *internal.User, dto CreateRequestDTO) (*Request, error) {
	parsed, err := dto.Parse()
	if err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, parsed.ItemID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	row := &purchaseDatamodel.PurchaseRequest{
		ItemID:      it.ID,
		ItemName:    it.Name,
		Qty:         parsed.Qty,
		Reason:      parsed.Reason,
		Status:      string(StatusPending),
		RequestedBy: actor.ID,
	}
	history := &purchaseDatamodel.RequestHistory{
		Action:  string(ActionCreated),
		Actor:   actor.ID,
		Message: MessageCreated,
		At:      now,
	}
	if err := s.repo.Create(ctx, row, history); err != nil {
		return nil, internal.NewInternalError("failed to create purchase request", err)
	}

	s.logger.Info("purchase request created", "request_id", row.ID, "item_id", row.ItemID, "qty", row.Qty, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeRequestCreated, row, actor.ID)
	return FromDataModel(row), nil
}

// List returns requests newest first. Non-admins only see their own.
func (s *Service) List(ctx context.Context, actor *internal.User, status string) ([]*RequestView, error) {
	f := Filter{Status: strings.TrimSpace(status)}
	if !actor.IsAdmin() {
		f.RequestedBy = actor.ID
	}

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase requests: %w", err)
	}

	requests := make([]*Request, 0, len(rows))
	var ids []int64
	for _, row := range rows {
		r := FromDataModel(row)
		requests = append(requests, r)
		ids = append(ids, r.userIDs()...)
	}

	users, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*RequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, r.View(users))
	}
	return views, nil
}

func (s *Service) Get(ctx context.Context, actor *internal.User, id int64) (*RequestView, error) {
	r, err := s.visible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.Summaries(ctx, r.userIDs())
	if err != nil {
		return nil, err
	}
	return r.View(users), nil
}

// Approve moves a pending request to approved and adds its quantity to the
// item's stock in one transaction.
func (s *Service) Approve(ctx context.Context, actor *internal.User, id int64) (*Request, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, stateError(current.Status)
	}
	if _, err := s.items.GetByID(ctx, current.ItemID); err != nil {
		return nil, err
	}

	row, err := s.repo.Approve(ctx, id, actor.ID, s.now())
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("purchase request approved", "request_id", row.ID, "item_id", row.ItemID, "qty", row.Qty, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeRequestApproved, row, actor.ID)
	return FromDataModel(row), nil
}

// Reject moves a pending request to rejected. Stock is untouched.
func (s *Service) Reject(ctx context.Context, actor *internal.User, id int64, dto RejectRequestDTO) (*Request, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, stateError(current.Status)
	}

	message := dto.Message
	if message == "" {
		message = MessageRejected
	}

	row, err := s.repo.Reject(ctx, id, actor.ID, message, s.now())
	if err != nil {
		return nil, s.mapError(err)
	}

	s.logger.Info("purchase request rejected", "request_id", row.ID, "user_id", actor.ID)
	s.publish(ctx, events.EventTypeRequestRejected, row, actor.ID)
	return FromDataModel(row), nil
}

// History returns the request's transitions, oldest first.
func (s *Service) History(ctx context.Context, actor *internal.User, id int64) ([]*HistoryEntry, error) {
	if _, err := s.visible(ctx, actor, id); err != nil {
		return nil, err
	}

	rows, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	ids := make([]int64, 0, len(rows))
	for _, h := range rows {
		ids = append(ids, h.Actor)
	}
	users, err := s.users.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]*HistoryEntry, 0, len(rows))
	for _, h := range rows {
		entries = append(entries, historyFromDataModel(h, users))
	}
	return entries, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Request, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	return FromDataModel(row), nil
}

// visible loads a request the actor may read: admins read all, others only
// their own.
func (s *Service) visible(ctx context.Context, actor *internal.User, id int64) (*Request, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && r.RequestedBy != actor.ID {
		return nil, internal.ErrForbidden
	}
	return r, nil
}

func (s *Service) mapError(err error) error {
	var stateErr *StateError
	switch {
	case errors.Is(err, ErrNotFound):
		return internal.ErrRequestNotFound
	case errors.Is(err, ErrItemNotFound):
		return internal.ErrItemNotFound
	case errors.As(err, &stateErr):
		return stateError(stateErr.Status)
	default:
		return internal.NewInternalError("purchase request store failed", err)
	}
}

func stateError(status Status) error {
	return internal.NewValidationError((&StateError{Status: status}).Error(), internal.ErrCodeInvalidRequestState)
}

func (s *Service) publish(ctx context.Context, eventType string, row *purchaseDatamodel.PurchaseRequest, actorID int64) {
	if s.publisher == nil {
		return
	}
	event := events.NewRequestTransitionEvent(eventType, row.ID, row.ItemID, row.Qty, actorID, row.Status)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish purchase request event", "event_type", eventType, "error", err)
	}
}
