package audit

import (
	"time"

	"gorm.io/datatypes"
)

type DbRequestHistory struct {
	ID         int64          `gorm:"primaryKey" db:"id"`
	At         time.Time      `gorm:"column:at;not null;index" db:"at"`
	DurationMs int64          `gorm:"column:duration_ms" db:"duration_ms"`
	Actor      *int64         `gorm:"column:actor" db:"actor"`
	ActorRole  *string        `gorm:"column:actor_role" db:"actor_role"`
	Method     string         `gorm:"column:method;not null" db:"method"`
	Path       string         `gorm:"column:path;not null" db:"path"`
	StatusCode int            `gorm:"column:status_code" db:"status_code"`
	Params     datatypes.JSON `gorm:"column:params" db:"params"`
	Query      datatypes.JSON `gorm:"column:query" db:"query"`
	Body       datatypes.JSON `gorm:"column:body" db:"body"`
	Note       string         `gorm:"column:note" db:"note"`
}

func (DbRequestHistory) TableName() string {
	return "db_request_history"
}
