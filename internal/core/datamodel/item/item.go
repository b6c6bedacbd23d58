package item

import "time"

const (
	SourceManual  = "manual"
	SourceOpenFDA = "openfda"
)

type Item struct {
	ID               int64      `gorm:"primaryKey"`
	OpenFDARecordKey *string    `gorm:"column:openfda_record_key;uniqueIndex"`
	Name             string     `gorm:"column:name;not null"`
	Category         string     `gorm:"column:category;not null"`
	Manufacturer     string     `gorm:"column:manufacturer;not null"`
	Unit             string     `gorm:"column:unit;not null"`
	Qty              int64      `gorm:"column:qty;not null;check:chk_items_qty,qty >= 0"`
	ReorderLevel     int64      `gorm:"column:reorder_level;not null"`
	Source           string     `gorm:"column:source;not null;index"`
	LastSyncedAt     *time.Time `gorm:"column:last_synced_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Item) TableName() string {
	return "items"
}
