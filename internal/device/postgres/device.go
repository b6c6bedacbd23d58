package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	deviceDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/device"
	"github.com/frahmantamala/inventory-management/internal/device"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 200

const selectColumns = `id, record_key, record_status, publish_date, public_version_number,
	public_version_date, brand_name, company_name, catalog_number, version_or_model_number,
	device_description, medical_device_names, device_classes, regulation_numbers,
	medical_specialty_descriptions, gmdn_terms, source, last_synced_at, created_at, updated_at`

// searchColumns are matched by the free-text term. List columns are searched
// through their JSON text.
var searchColumns = []string{
	"brand_name",
	"company_name",
	"catalog_number",
	"version_or_model_number",
	"device_description",
	"medical_device_names",
	"regulation_numbers",
}

var refreshColumns = []string{
	"record_status", "publish_date", "public_version_number", "public_version_date",
	"brand_name", "company_name", "catalog_number", "version_or_model_number",
	"device_description", "medical_device_names", "device_classes", "regulation_numbers",
	"medical_specialty_descriptions", "gmdn_terms", "source", "last_synced_at", "updated_at",
}

// DeviceRepository reads through sqlx and writes through GORM; both share
// one connection pool.
type DeviceRepository struct {
	db   *gorm.DB
	sqlx *sqlx.DB
}

func NewDeviceRepository(db *gorm.DB, sqlxDB *sqlx.DB) device.RepositoryAPI {
	return &DeviceRepository{db: db, sqlx: sqlxDB}
}

func (r *DeviceRepository) List(ctx context.Context, q device.ListQuery) ([]*deviceDatamodel.MedicalDevice, int64, error) {
	where, args := searchClause(q.Term)

	var total int64
	countQuery := r.sqlx.Rebind("SELECT COUNT(*) FROM medical_devices" + where)
	if err := r.sqlx.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count devices: %w", err)
	}

	listQuery := r.sqlx.Rebind("SELECT " + selectColumns + " FROM medical_devices" + where +
		" ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?")
	rows := []*deviceDatamodel.MedicalDevice{}
	if err := r.sqlx.SelectContext(ctx, &rows, listQuery, append(args, q.Limit, q.Skip)...); err != nil {
		return nil, 0, fmt.Errorf("list devices: %w", err)
	}
	return rows, total, nil
}

func (r *DeviceRepository) GetByRecordKey(ctx context.Context, recordKey string) (*deviceDatamodel.MedicalDevice, error) {
	var d deviceDatamodel.MedicalDevice
	query := r.sqlx.Rebind("SELECT " + selectColumns + " FROM medical_devices WHERE record_key = ?")
	if err := r.sqlx.GetContext(ctx, &d, query, recordKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, device.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// UpsertByRecordKey overwrites existing rows with the incoming values. A
// failing batch is retried row by row.
func (r *DeviceRepository) UpsertByRecordKey(ctx context.Context, rows []*deviceDatamodel.MedicalDevice) (device.UpsertResult, error) {
	var res device.UpsertResult
	rows = dedupeByKey(rows)
	if len(rows) == 0 {
		return res, nil
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.RecordKey)
	}
	var existing []string
	if err := r.db.WithContext(ctx).Model(&deviceDatamodel.MedicalDevice{}).
		Where("record_key IN ?", keys).Pluck("record_key", &existing).Error; err != nil {
		return res, err
	}
	known := make(map[string]bool, len(existing))
	for _, k := range existing {
		known[k] = true
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns(refreshColumns),
	}

	failed := make(map[string]bool)
	if err := r.db.WithContext(ctx).Clauses(onConflict).CreateInBatches(rows, upsertBatchSize).Error; err != nil {
		for _, row := range rows {
			if err := r.db.WithContext(ctx).Clauses(onConflict).Create(row).Error; err != nil {
				failed[row.RecordKey] = true
			}
		}
	}

	for _, row := range rows {
		switch {
		case failed[row.RecordKey]:
			res.Failed++
		case known[row.RecordKey]:
			res.Matched++
		default:
			res.Upserted++
		}
	}
	return res, nil
}

func searchClause(term string) (string, []interface{}) {
	if term == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	conds := make([]string, 0, len(searchColumns))
	args := make([]interface{}, 0, len(searchColumns))
	for _, col := range searchColumns {
		conds = append(conds, fmt.Sprintf(`LOWER(CAST(%s AS TEXT)) LIKE ? ESCAPE '\'`, col))
		args = append(args, pattern)
	}
	return " WHERE " + strings.Join(conds, " OR "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func dedupeByKey(rows []*deviceDatamodel.MedicalDevice) []*deviceDatamodel.MedicalDevice {
	index := make(map[string]int, len(rows))
	out := make([]*deviceDatamodel.MedicalDevice, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.RecordKey]; ok {
			out[i] = row
			continue
		}
		index[row.RecordKey] = len(out)
		out = append(out, row)
	}
	return out
}
