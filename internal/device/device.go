package device

import (
	"errors"
	"time"

	deviceDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/device"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var ErrNotFound = errors.New("device not found")

type Device struct {
	ID                           int64                      `json:"id"`
	RecordKey                    string                     `json:"record_key"`
	RecordStatus                 *string                    `json:"record_status"`
	PublishDate                  *string                    `json:"publish_date"`
	PublicVersionNumber          *string                    `json:"public_version_number"`
	PublicVersionDate            *string                    `json:"public_version_date"`
	BrandName                    *string                    `json:"brand_name"`
	CompanyName                  *string                    `json:"company_name"`
	CatalogNumber                *string                    `json:"catalog_number"`
	VersionOrModelNumber         *string                    `json:"version_or_model_number"`
	DeviceDescription            *string                    `json:"device_description"`
	MedicalDeviceNames           []string                   `json:"medical_device_names"`
	DeviceClasses                []string                   `json:"device_classes"`
	RegulationNumbers            []string                   `json:"regulation_numbers"`
	MedicalSpecialtyDescriptions []string                   `json:"medical_specialty_descriptions"`
	GMDNTerms                    []deviceDatamodel.GMDNTerm `json:"gmdn_terms"`
	Source                       string                     `json:"source"`
	LastSyncedAt                 *time.Time                 `json:"last_synced_at"`
	CreatedAt                    time.Time                  `json:"created_at"`
	UpdatedAt                    time.Time                  `json:"updated_at"`
}

// ListQuery is a page of the local catalog. Term matches case-insensitively
// anywhere in the descriptive fields.
type ListQuery struct {
	Term  string
	Limit int
	Skip  int
}

// Normalize clamps limit to 1..100 and skip to >= 0.
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
	Results []*Device `json:"results"`
}

type UpsertResult struct {
	Upserted int
	Matched  int
	Failed   int
}

func FromDataModel(d *deviceDatamodel.MedicalDevice) *Device {
	return &Device{
		ID:                           d.ID,
		RecordKey:                    d.RecordKey,
		RecordStatus:                 d.RecordStatus,
		PublishDate:                  d.PublishDate,
		PublicVersionNumber:          d.PublicVersionNumber,
		PublicVersionDate:            d.PublicVersionDate,
		BrandName:                    d.BrandName,
		CompanyName:                  d.CompanyName,
		CatalogNumber:                d.CatalogNumber,
		VersionOrModelNumber:         d.VersionOrModelNumber,
		DeviceDescription:            d.DeviceDescription,
		MedicalDeviceNames:           nonNil(d.MedicalDeviceNames),
		DeviceClasses:                nonNil(d.DeviceClasses),
		RegulationNumbers:            nonNil(d.RegulationNumbers),
		MedicalSpecialtyDescriptions: nonNil(d.MedicalSpecialtyDescriptions),
		GMDNTerms:                    nonNilTerms(d.GMDNTerms),
		Source:                       d.Source,
		LastSyncedAt:                 d.LastSyncedAt,
		CreatedAt:                    d.CreatedAt,
		UpdatedAt:                    d.UpdatedAt,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilTerms(v []deviceDatamodel.GMDNTerm) []deviceDatamodel.GMDNTerm {
	if v == nil {
		return []deviceDatamodel.GMDNTerm{}
	}
	return v
}
