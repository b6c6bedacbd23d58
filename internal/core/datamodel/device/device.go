package device

import (
	"time"

	"gorm.io/datatypes"
)

type GMDNTerm struct {
	Code       *string `json:"code"`
	Name       *string `json:"name"`
	Definition *string `json:"definition"`
}

// MedicalDevice mirrors one openFDA UDI record. The db tags serve the sqlx
// read path, the gorm tags the upsert path.
type MedicalDevice struct {
	ID                           int64                         `gorm:"primaryKey" db:"id"`
	RecordKey                    string                        `gorm:"column:record_key;uniqueIndex;not null" db:"record_key"`
	RecordStatus                 *string                       `gorm:"column:record_status" db:"record_status"`
	PublishDate                  *string                       `gorm:"column:publish_date" db:"publish_date"`
	PublicVersionNumber          *string                       `gorm:"column:public_version_number" db:"public_version_number"`
	PublicVersionDate            *string                       `gorm:"column:public_version_date" db:"public_version_date"`
	BrandName                    *string                       `gorm:"column:brand_name" db:"brand_name"`
	CompanyName                  *string                       `gorm:"column:company_name" db:"company_name"`
	CatalogNumber                *string                       `gorm:"column:catalog_number" db:"catalog_number"`
	VersionOrModelNumber         *string                       `gorm:"column:version_or_model_number" db:"version_or_model_number"`
	DeviceDescription            *string                       `gorm:"column:device_description" db:"device_description"`
	MedicalDeviceNames           datatypes.JSONSlice[string]   `gorm:"column:medical_device_names" db:"medical_device_names"`
	DeviceClasses                datatypes.JSONSlice[string]   `gorm:"column:device_classes" db:"device_classes"`
	RegulationNumbers            datatypes.JSONSlice[string]   `gorm:"column:regulation_numbers" db:"regulation_numbers"`
	MedicalSpecialtyDescriptions datatypes.JSONSlice[string]   `gorm:"column:medical_specialty_descriptions" db:"medical_specialty_descriptions"`
	GMDNTerms                    datatypes.JSONSlice[GMDNTerm] `gorm:"column:gmdn_terms" db:"gmdn_terms"`
	Source                       string                        `gorm:"column:source;not null" db:"source"`
	LastSyncedAt                 *time.Time                    `gorm:"column:last_synced_at" db:"last_synced_at"`
	CreatedAt                    time.Time                     `gorm:"column:created_at;autoCreateTime" db:"created_at"`
	UpdatedAt                    time.Time                     `gorm:"column:updated_at;autoUpdateTime" db:"updated_at"`
}

func (MedicalDevice) TableName() string {
	return "medical_devices"
}
