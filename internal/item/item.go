package item

import (
	"errors"
	"time"

	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
)

const (
	DefaultCategory     = "General"
	DefaultManufacturer = "—"
	DefaultUnit         = "pcs"
	DefaultReorderLevel = 10
)

var ErrNotFound = errors.New("item not found")

type Item struct {
	ID               int64      `json:"id"`
	OpenFDARecordKey *string    `json:"openfda_record_key,omitempty"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Manufacturer     string     `json:"manufacturer"`
	Unit             string     `json:"unit"`
	Qty              int64      `json:"qty"`
	ReorderLevel     int64      `json:"reorder_level"`
	Source           string     `json:"source"`
	LastSyncedAt     *time.Time `json:"last_synced_at"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// UpsertResult counts the outcome of a keyed bulk write. Matched rows already
// existed; Modified is the subset whose catalog fields changed.
type UpsertResult struct {
	Upserted int `json:"upserted"`
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Failed   int `json:"failed"`
}

func ToDataModel(i *Item) *itemDatamodel.Item {
	return &itemDatamodel.Item{
		ID:               i.ID,
		OpenFDARecordKey: i.OpenFDARecordKey,
		Name:             i.Name,
		Category:         i.Category,
		Manufacturer:     i.Manufacturer,
		Unit:             i.Unit,
		Qty:              i.Qty,
		ReorderLevel:     i.ReorderLevel,
		Source:           i.Source,
		LastSyncedAt:     i.LastSyncedAt,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

func FromDataModel(i *itemDatamodel.Item) *Item {
	return &Item{
		ID:               i.ID,
		OpenFDARecordKey: i.OpenFDARecordKey,
		Name:             i.Name,
		Category:         i.Category,
		Manufacturer:     i.Manufacturer,
		Unit:             i.Unit,
		Qty:              i.Qty,
		ReorderLevel:     i.ReorderLevel,
		Source:           i.Source,
		LastSyncedAt:     i.LastSyncedAt,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}
