package purchase

import "time"

type PurchaseRequest struct {
	ID          int64      `gorm:"primaryKey"`
	ItemID      int64      `gorm:"column:item_id;not null;index"`
	ItemName    string     `gorm:"column:item_name;not null"`
	Qty         int64      `gorm:"column:qty;not null"`
	Reason      string     `gorm:"column:reason"`
	Status      string     `gorm:"column:status;not null;index"`
	RequestedBy int64      `gorm:"column:requested_by;not null;index"`
	ApprovedBy  *int64     `gorm:"column:approved_by"`
	RejectedBy  *int64     `gorm:"column:rejected_by"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (PurchaseRequest) TableName() string {
	return "requests"
}

type Snapshot struct {
	Status   string `gorm:"column:status"`
	Qty      int64  `gorm:"column:qty"`
	ItemName string `gorm:"column:item_name"`
	ItemID   int64  `gorm:"column:item_id"`
}

type RequestHistory struct {
	ID        int64     `gorm:"primaryKey"`
	RequestID int64     `gorm:"column:request_id;not null;index"`
	Action    string    `gorm:"column:action;not null"`
	Actor     int64     `gorm:"column:actor;not null"`
	Message   string    `gorm:"column:message"`
	Snapshot  Snapshot  `gorm:"embedded;embeddedPrefix:snapshot_"`
	At        time.Time `gorm:"column:at;not null"`
}

func (RequestHistory) TableName() string {
	return "request_history"
}
