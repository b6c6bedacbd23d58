// Package dbaudit keeps a persistent trail of every request that read or
// wrote the store.
package dbaudit

import (
	"encoding/json"
	"time"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	// maxCapturedBody bounds how much of a request body is kept for the trail.
	maxCapturedBody = 1 << 20
)

type Record struct {
	ID         int64           `json:"id"`
	At         time.Time       `json:"at"`
	DurationMs int64           `json:"duration_ms"`
	Actor      *int64          `json:"actor"`
	ActorRole  *string         `json:"actor_role"`
	Method     string          `json:"method"`
	Path       string          `json:"path"`
	StatusCode int             `json:"status_code"`
	Params     json.RawMessage `json:"params"`
	Query      json.RawMessage `json:"query"`
	Body       json.RawMessage `json:"body"`
	Note       string          `json:"note"`
}

type ListQuery struct {
	Limit int
	Skip  int
}

func (q ListQuery) Normalize() ListQuery {
	if q.Limit < 1 {
		q.Limit = 1
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	return q
}

type ListResult struct {
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Skip    int       `json:"skip"`
	Results []*Record `json:"results"`
}

func rawOrNull(b []byte) json.RawMessage {
	if len(b) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(b)
}

func FromDataModel(dm *auditDatamodel.DbRequestHistory) *Record {
	return &Record{
		ID:         dm.ID,
		At:         dm.At,
		DurationMs: dm.DurationMs,
		Actor:      dm.Actor,
		ActorRole:  dm.ActorRole,
		Method:     dm.Method,
		Path:       dm.Path,
		StatusCode: dm.StatusCode,
		Params:     rawOrNull(dm.Params),
		Query:      rawOrNull(dm.Query),
		Body:       rawOrNull(dm.Body),
		Note:       dm.Note,
	}
}
