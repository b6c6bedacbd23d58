package postgres

import (
	"context"
	"errors"

	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	"github.com/frahmantamala/inventory-management/internal/item"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

// catalogColumns are overwritten when an imported key already exists. qty and
// reorder_level are owned by the inventory side and never touched.
var catalogColumns = []string{
	"name", "category", "manufacturer", "unit", "source", "last_synced_at", "updated_at",
}

// ItemRepository implements item.RepositoryAPI using GORM
type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) item.RepositoryAPI {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) List(ctx context.Context) ([]*itemDatamodel.Item, error) {
	var items []*itemDatamodel.Item
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*itemDatamodel.Item, error) {
	var i itemDatamodel.Item
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&i).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, item.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *ItemRepository) Create(ctx context.Context, i *itemDatamodel.Item) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *ItemRepository) CountBySource(ctx context.Context, source string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&itemDatamodel.Item{}).Where("source = ?", source).Count(&n).Error
	return n, err
}

func (r *ItemRepository) DeleteBySource(ctx context.Context, source string) (int64, error) {
	res := r.db.WithContext(ctx).Where("source = ?", source).Delete(&itemDatamodel.Item{})
	return res.RowsAffected, res.Error
}

func (r *ItemRepository) PurgeNonFDA(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("source <> ? OR openfda_record_key IS NULL", itemDatamodel.SourceOpenFDA).
		Delete(&itemDatamodel.Item{})
	return res.RowsAffected, res.Error
}

// UpsertByRecordKey writes rows keyed on openfda_record_key. The whole set is
// tried as one batch first; on failure each row is retried alone so a bad row
// only costs itself.
func (r *ItemRepository) UpsertByRecordKey(ctx context.Context, rows []*itemDatamodel.Item) (item.UpsertResult, error) {
	var res item.UpsertResult
	rows = dedupeByKey(rows)
	if len(rows) == 0 {
		return res, nil
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, *row.OpenFDARecordKey)
	}

	var existing []*itemDatamodel.Item
	if err := r.db.WithContext(ctx).Where("openfda_record_key IN ?", keys).Find(&existing).Error; err != nil {
		return res, err
	}
	before := make(map[string]*itemDatamodel.Item, len(existing))
	for _, e := range existing {
		before[*e.OpenFDARecordKey] = e
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "openfda_record_key"}},
		DoUpdates: clause.AssignmentColumns(catalogColumns),
	}

	failed := make(map[string]bool)
	if err := r.db.WithContext(ctx).Clauses(onConflict).CreateInBatches(rows, upsertBatchSize).Error; err != nil {
		for _, row := range rows {
			if err := r.db.WithContext(ctx).Clauses(onConflict).Create(row).Error; err != nil {
				failed[*row.OpenFDARecordKey] = true
			}
		}
	}

	for _, row := range rows {
		key := *row.OpenFDARecordKey
		if failed[key] {
			res.Failed++
			continue
		}
		prev, ok := before[key]
		if !ok {
			res.Upserted++
			continue
		}
		res.Matched++
		if catalogChanged(prev, row) {
			res.Modified++
		}
	}
	return res, nil
}

// dedupeByKey keeps the last row per key, preserving first-seen order.
func dedupeByKey(rows []*itemDatamodel.Item) []*itemDatamodel.Item {
	index := make(map[string]int, len(rows))
	out := make([]*itemDatamodel.Item, 0, len(rows))
	for _, row := range rows {
		if row.OpenFDARecordKey == nil || *row.OpenFDARecordKey == "" {
			continue
		}
		key := *row.OpenFDARecordKey
		if i, ok := index[key]; ok {
			out[i] = row
			continue
		}
		index[key] = len(out)
		out = append(out, row)
	}
	return out
}

func catalogChanged(prev, next *itemDatamodel.Item) bool {
	return prev.Name != next.Name ||
		prev.Category != next.Category ||
		prev.Manufacturer != next.Manufacturer ||
		prev.Unit != next.Unit ||
		prev.Source != next.Source
}
