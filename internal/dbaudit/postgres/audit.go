package postgres

import (
	"context"

	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/dbaudit"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db   *gorm.DB
	sqlx *sqlx.DB
}

func NewAuditRepository(db *gorm.DB, sqlxDB *sqlx.DB) dbaudit.RepositoryAPI {
	return &AuditRepository{db: db, sqlx: sqlxDB}
}

func (r *AuditRepository) Create(ctx context.Context, rec *auditDatamodel.DbRequestHistory) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *AuditRepository) List(ctx context.Context, q dbaudit.ListQuery) ([]*auditDatamodel.DbRequestHistory, int64, error) {
	var total int64
	if err := r.sqlx.GetContext(ctx, &total, `SELECT COUNT(*) FROM db_request_history`); err != nil {
		return nil, 0, err
	}

	query := r.sqlx.Rebind(`
		SELECT id, at, duration_ms, actor, actor_role, method, path, status_code, params, query, body, note
		FROM db_request_history
		ORDER BY at DESC, id DESC
		LIMIT ? OFFSET ?`)

	rows := []*auditDatamodel.DbRequestHistory{}
	if err := r.sqlx.SelectContext(ctx, &rows, query, q.Limit, q.Skip); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
