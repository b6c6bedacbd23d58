package purchase

import (
	"errors"
	"fmt"
	"time"

	purchaseDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/purchase"
	"github.com/frahmantamala/inventory-management/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Action string

const (
	ActionCreated  Action = "created"
	ActionApproved Action = "approved"
	ActionRejected Action = "rejected"
)

const (
	MessageCreated  = "Request created"
	MessageApproved = "Request approved"
	MessageRejected = "Request rejected"
)

var (
	ErrNotFound     = errors.New("purchase request not found")
	ErrItemNotFound = errors.New("item not found")
)

// StateError reports a transition attempted on a request that already left
// pending.
type StateError struct {
	Status Status
}

func (e *StateError) Error() string {
	return fmt.Sprintf("Request is already %s", e.Status)
}

type Request struct {
	ID          int64      `json:"id"`
	ItemID      int64      `json:"item_id"`
	ItemName    string     `json:"item_name"`
	Qty         int64      `json:"qty"`
	Reason      string     `json:"reason"`
	Status      Status     `json:"status"`
	RequestedBy int64      `json:"requested_by"`
	ApprovedBy  *int64     `json:"approved_by"`
	RejectedBy  *int64     `json:"rejected_by"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// RequestView is a request with its user references resolved. A reference to
// a user that no longer exists renders as null.
type RequestView struct {
	ID          int64         `json:"id"`
	ItemID      int64         `json:"item_id"`
	ItemName    string        `json:"item_name"`
	Qty         int64         `json:"qty"`
	Reason      string        `json:"reason"`
	Status      Status        `json:"status"`
	RequestedBy *user.Summary `json:"requested_by"`
	ApprovedBy  *user.Summary `json:"approved_by"`
	RejectedBy  *user.Summary `json:"rejected_by"`
	ProcessedAt *time.Time    `json:"processed_at"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Snapshot struct {
	Status   Status `json:"status"`
	Qty      int64  `json:"qty"`
	ItemName string `json:"item_name"`
	ItemID   int64  `json:"item_id"`
}

type HistoryEntry struct {
	ID        int64         `json:"id"`
	RequestID int64         `json:"request_id"`
	Action    Action        `json:"action"`
	Actor     *user.Summary `json:"actor"`
	Message   string        `json:"message"`
	Snapshot  Snapshot      `json:"snapshot"`
	At        time.Time     `json:"at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Status      string
	RequestedBy int64
}

func FromDataModel(r *purchaseDatamodel.PurchaseRequest) *Request {
	return &Request{
		ID:          r.ID,
		ItemID:      r.ItemID,
		ItemName:    r.ItemName,
		Qty:         r.Qty,
		Reason:      r.Reason,
		Status:      Status(r.Status),
		RequestedBy: r.RequestedBy,
		ApprovedBy:  r.ApprovedBy,
		RejectedBy:  r.RejectedBy,
		ProcessedAt: r.ProcessedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SnapshotOf captures the fields recorded alongside every history entry.
func SnapshotOf(r *purchaseDatamodel.PurchaseRequest) purchaseDatamodel.Snapshot {
	return purchaseDatamodel.Snapshot{
		Status:   r.Status,
		Qty:      r.Qty,
		ItemName: r.ItemName,
		ItemID:   r.ItemID,
	}
}

func (r *Request) View(users map[int64]*user.Summary) *RequestView {
	v := &RequestView{
		ID:          r.ID,
		ItemID:      r.ItemID,
		ItemName:    r.ItemName,
		Qty:         r.Qty,
		Reason:      r.Reason,
		Status:      r.Status,
		RequestedBy: users[r.RequestedBy],
		ProcessedAt: r.ProcessedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ApprovedBy != nil {
		v.ApprovedBy = users[*r.ApprovedBy]
	}
	if r.RejectedBy != nil {
		v.RejectedBy = users[*r.RejectedBy]
	}
	return v
}

func (r *Request) userIDs() []int64 {
	ids := []int64{r.RequestedBy}
	if r.ApprovedBy != nil {
		ids = append(ids, *r.ApprovedBy)
	}
	if r.RejectedBy != nil {
		ids = append(ids, *r.RejectedBy)
	}
	return ids
}

func historyFromDataModel(h *purchaseDatamodel.RequestHistory, users map[int64]*user.Summary) *HistoryEntry {
	return &HistoryEntry{
		ID:        h.ID,
		RequestID: h.RequestID,
		Action:    Action(h.Action),
		Actor:     users[h.Actor],
		Message:   h.Message,
		Snapshot: Snapshot{
			Status:   Status(h.Snapshot.Status),
			Qty:      h.Snapshot.Qty,
			ItemName: h.Snapshot.ItemName,
			ItemID:   h.Snapshot.ItemID,
		},
		At: h.At,
	}
}
