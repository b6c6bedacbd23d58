package item

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/inventory-management/internal"
	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	"github.com/frahmantamala/inventory-management/internal/openfda"
)

type RepositoryAPI interface {
	List(ctx context.Context) ([]*itemDatamodel.Item, error)
	GetByID(ctx context.Context, id int64) (*itemDatamodel.Item, error)
	Create(ctx context.Context, i *itemDatamodel.Item) error
	CountBySource(ctx context.Context, source string) (int64, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	PurgeNonFDA(ctx context.Context) (int64, error)
	UpsertByRecordKey(ctx context.Context, rows []*itemDatamodel.Item) (UpsertResult, error)
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

// List returns the catalog, newest first.
func (s *Service) List(ctx context.Context) ([]*Item, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	items := make([]*Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, FromDataModel(r))
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Item, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	return FromDataModel(row), nil
}

// Create adds a manual catalog entry.
func (s *Service) Create(ctx context.Context, dto CreateItemDTO) (*Item, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm := ToDataModel(dto.ToItem())
	if err := s.repo.Create(ctx, dm); err != nil {
		return nil, internal.NewInternalError("failed to create item", err)
	}

	s.logger.Info("item created", "item_id", dm.ID, "name", dm.Name)
	return FromDataModel(dm), nil
}

// PurgeNonFDA removes every item not keyed to an openFDA record.
func (s *Service) PurgeNonFDA(ctx context.Context) (int64, error) {
	n, err := s.repo.PurgeNonFDA(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to purge items: %w", err)
	}
	s.logger.Info("non-FDA items purged", "deleted", n)
	return n, nil
}

// CountOpenFDA reports how many imported items exist.
func (s *Service) CountOpenFDA(ctx context.Context) (int64, error) {
	return s.repo.CountBySource(ctx, itemDatamodel.SourceOpenFDA)
}

// DeleteOpenFDA clears previously imported items ahead of a replace import.
func (s *Service) DeleteOpenFDA(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteBySource(ctx, itemDatamodel.SourceOpenFDA)
	if err != nil {
		return 0, fmt.Errorf("failed to delete imported items: %w", err)
	}
	return n, nil
}

// UpsertFromOpenFDA writes mapped records keyed by their record key. Stock
// fields of existing rows are left alone.
func (s *Service) UpsertFromOpenFDA(ctx context.Context, records []openfda.ItemRecord) (UpsertResult, error) {
	rows := make([]*itemDatamodel.Item, 0, len(records))
	for _, r := range records {
		if !r.Importable() {
			continue
		}
		syncedAt := r.LastSyncedAt
		key := *r.OpenFDARecordKey
		rows = append(rows, &itemDatamodel.Item{
			OpenFDARecordKey: &key,
			Name:             r.Name,
			Category:         r.Category,
			Manufacturer:     r.Manufacturer,
			Unit:             r.Unit,
			Qty:              r.Qty,
			ReorderLevel:     r.ReorderLevel,
			Source:           r.Source,
			LastSyncedAt:     &syncedAt,
		})
	}

	res, err := s.repo.UpsertByRecordKey(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("failed to upsert items: %w", err)
	}
	s.logger.Info("items upserted",
		"upserted", res.Upserted, "matched", res.Matched, "modified", res.Modified, "failed", res.Failed)
	return res, nil
}
