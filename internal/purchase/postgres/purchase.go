package postgres

import (
	"context"
	"errors"
	"time"

	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	purchaseDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/purchase"
	"github.com/frahmantamala/inventory-management/internal/purchase"
	"gorm.io/gorm"
)

// PurchaseRepository implements purchase.RepositoryAPI using GORM. Every
// transition writes the request row and its history entry in one
// transaction.
type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) purchase.RepositoryAPI {
	return &PurchaseRepository{db: db}
}

func (r *PurchaseRepository) Create(ctx context.Context, req *purchaseDatamodel.PurchaseRequest, h *purchaseDatamodel.RequestHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		h.RequestID = req.ID
		h.Snapshot = purchase.SnapshotOf(req)
		return tx.Create(h).Error
	})
}

func (r *PurchaseRepository) GetByID(ctx context.Context, id int64) (*purchaseDatamodel.PurchaseRequest, error) {
	return findRequest(r.db.WithContext(ctx), id)
}

func (r *PurchaseRepository) List(ctx context.Context, f purchase.Filter) ([]*purchaseDatamodel.PurchaseRequest, error) {
	q := r.db.WithContext(ctx)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequestedBy != 0 {
		q = q.Where("requested_by = ?", f.RequestedBy)
	}

	var rows []*purchaseDatamodel.PurchaseRequest
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

// Approve transitions a pending request and increments the item's stock.
// The conditional update makes a concurrent decision lose cleanly.
func (r *PurchaseRepository) Approve(ctx context.Context, id, actorID int64, at time.Time) (*purchaseDatamodel.PurchaseRequest, error) {
	var out *purchaseDatamodel.PurchaseRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := transition(tx, id, map[string]interface{}{
			"status":       string(purchase.StatusApproved),
			"approved_by":  actorID,
			"processed_at": at,
			"updated_at":   at,
		})
		if err != nil {
			return err
		}

		res := tx.Model(&itemDatamodel.Item{}).
			Where("id = ?", row.ItemID).
			Updates(map[string]interface{}{
				"qty":        gorm.Expr("qty + ?", row.Qty),
				"updated_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return purchase.ErrItemNotFound
		}

		out = row
		return tx.Create(&purchaseDatamodel.RequestHistory{
			RequestID: row.ID,
			Action:    string(purchase.ActionApproved),
			Actor:     actorID,
			Message:   purchase.MessageApproved,
			Snapshot:  purchase.SnapshotOf(row),
			At:        at,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PurchaseRepository) Reject(ctx context.Context, id, actorID int64, message string, at time.Time) (*purchaseDatamodel.PurchaseRequest, error) {
	var out *purchaseDatamodel.PurchaseRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := transition(tx, id, map[string]interface{}{
			"status":       string(purchase.StatusRejected),
			"rejected_by":  actorID,
			"processed_at": at,
			"updated_at":   at,
		})
		if err != nil {
			return err
		}

		out = row
		return tx.Create(&purchaseDatamodel.RequestHistory{
			RequestID: row.ID,
			Action:    string(purchase.ActionRejected),
			Actor:     actorID,
			Message:   message,
			Snapshot:  purchase.SnapshotOf(row),
			At:        at,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PurchaseRepository) History(ctx context.Context, requestID int64) ([]*purchaseDatamodel.RequestHistory, error) {
	var rows []*purchaseDatamodel.RequestHistory
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// transition applies updates only while the request is pending and returns
// the reloaded row.
func transition(tx *gorm.DB, id int64, updates map[string]interface{}) (*purchaseDatamodel.PurchaseRequest, error) {
	res := tx.Model(&purchaseDatamodel.PurchaseRequest{}).
		Where("id = ? AND status = ?", id, string(purchase.StatusPending)).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		current, err := findRequest(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, &purchase.StateError{Status: purchase.Status(current.Status)}
	}
	return findRequest(tx, id)
}

func findRequest(db *gorm.DB, id int64) (*purchaseDatamodel.PurchaseRequest, error) {
	var row purchaseDatamodel.PurchaseRequest
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, purchase.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
