package openfda

import (
	"strings"
	"time"
)

const (
	PlaceholderManufacturer = "—"
	DefaultCategory         = "Medical Device"
	DefaultUnit             = "pcs"
	DefaultReorderLevel     = 10
)

// ItemRecord is a UDI record projected onto the inventory item shape.
type ItemRecord struct {
	OpenFDARecordKey *string   `json:"openfda_record_key"`
	Name             string    `json:"name"`
	Category         string    `json:"category"`
	Manufacturer     string    `json:"manufacturer"`
	Unit             string    `json:"unit"`
	Qty              int64     `json:"qty"`
	ReorderLevel     int64     `json:"reorder_level"`
	Source           string    `json:"source"`
	LastSyncedAt     time.Time `json:"last_synced_at"`
}

// Importable reports whether the record can be keyed into the catalog.
func (r ItemRecord) Importable() bool {
	return r.OpenFDARecordKey != nil && *r.OpenFDARecordKey != "" && r.Name != ""
}

// DeviceRecord is a UDI record projected onto the reference catalog shape.
type DeviceRecord struct {
	RecordKey                    *string              `json:"record_key"`
	RecordStatus                 *string              `json:"record_status"`
	PublishDate                  *string              `json:"publish_date"`
	PublicVersionNumber          *string              `json:"public_version_number"`
	PublicVersionDate            *string              `json:"public_version_date"`
	BrandName                    *string              `json:"brand_name"`
	CompanyName                  *string              `json:"company_name"`
	CatalogNumber                *string              `json:"catalog_number"`
	VersionOrModelNumber         *string              `json:"version_or_model_number"`
	DeviceDescription            *string              `json:"device_description"`
	MedicalDeviceNames           []string             `json:"medical_device_names"`
	DeviceClasses                []string             `json:"device_classes"`
	RegulationNumbers            []string             `json:"regulation_numbers"`
	MedicalSpecialtyDescriptions []string             `json:"medical_specialty_descriptions"`
	GMDNTerms                    []GMDNTerm           `json:"gmdn_terms"`
	ProductCodes                 []ProductCodeSummary `json:"product_codes,omitempty"`
}

type ProductCodeSummary struct {
	Code    *string         `json:"code"`
	Name    *string         `json:"name"`
	OpenFDA *ProductOpenFDA `json:"openfda"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...*string) string {
	for _, v := range values {
		if s := strings.TrimSpace(deref(v)); s != "" {
			return s
		}
	}
	return ""
}

// itemKey prefers the public record key, falling back to the record key only
// when the public key is absent.
func itemKey(r Record) *string {
	if r.PublicDeviceRecordKey != nil {
		return r.PublicDeviceRecordKey
	}
	return r.RecordKey
}

func MapItem(r Record, now time.Time) ItemRecord {
	key := itemKey(r)

	manufacturer := firstNonEmpty(r.CompanyName)
	if manufacturer == "" {
		manufacturer = PlaceholderManufacturer
	}

	var specialty, class *string
	if len(r.ProductCodes) > 0 && r.ProductCodes[0].OpenFDA != nil {
		specialty = r.ProductCodes[0].OpenFDA.MedicalSpecialtyDescription
		class = r.ProductCodes[0].OpenFDA.DeviceClass
	}
	category := firstNonEmpty(specialty, class)
	if category == "" {
		category = DefaultCategory
	}

	return ItemRecord{
		OpenFDARecordKey: key,
		Name:             firstNonEmpty(r.DeviceDescription, r.BrandName, r.CatalogNumber, r.VersionOrModelNumber, key),
		Category:         category,
		Manufacturer:     manufacturer,
		Unit:             DefaultUnit,
		Qty:              0,
		ReorderLevel:     DefaultReorderLevel,
		Source:           SourceName,
		LastSyncedAt:     now,
	}
}

// MapItems maps every record and keeps only importable ones.
func MapItems(records []Record, now time.Time) []ItemRecord {
	items := make([]ItemRecord, 0, len(records))
	for _, r := range records {
		if item := MapItem(r, now); item.Importable() {
			items = append(items, item)
		}
	}
	return items
}

func uniqueStrings(values []*string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		s := deref(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func MapDevice(r Record, includeProductCodes bool) DeviceRecord {
	var names, classes, regulations, specialties []*string
	for _, pc := range r.ProductCodes {
		if pc.OpenFDA == nil {
			continue
		}
		names = append(names, pc.OpenFDA.DeviceName)
		classes = append(classes, pc.OpenFDA.DeviceClass)
		regulations = append(regulations, pc.OpenFDA.RegulationNumber)
		specialties = append(specialties, pc.OpenFDA.MedicalSpecialtyDescription)
	}

	terms := make([]GMDNTerm, 0, len(r.GMDNTerms))
	for _, t := range r.GMDNTerms {
		if deref(t.Code) == "" && deref(t.Name) == "" && deref(t.Definition) == "" {
			continue
		}
		terms = append(terms, t)
	}

	d := DeviceRecord{
		RecordKey:                    r.RecordKey,
		RecordStatus:                 r.RecordStatus,
		PublishDate:                  r.PublishDate,
		PublicVersionNumber:          r.PublicVersionNumber,
		PublicVersionDate:            r.PublicVersionDate,
		BrandName:                    r.BrandName,
		CompanyName:                  r.CompanyName,
		CatalogNumber:                r.CatalogNumber,
		VersionOrModelNumber:         r.VersionOrModelNumber,
		DeviceDescription:            r.DeviceDescription,
		MedicalDeviceNames:           uniqueStrings(names),
		DeviceClasses:                uniqueStrings(classes),
		RegulationNumbers:            uniqueStrings(regulations),
		MedicalSpecialtyDescriptions: uniqueStrings(specialties),
		GMDNTerms:                    terms,
	}

	if includeProductCodes {
		d.ProductCodes = make([]ProductCodeSummary, 0, len(r.ProductCodes))
		for _, pc := range r.ProductCodes {
			if deref(pc.Code) == "" && deref(pc.Name) == "" && pc.OpenFDA == nil {
				continue
			}
			d.ProductCodes = append(d.ProductCodes, ProductCodeSummary(pc))
		}
	}

	return d
}

func MapDevices(records []Record, includeProductCodes bool) []DeviceRecord {
	devices := make([]DeviceRecord, 0, len(records))
	for _, r := range records {
		devices = append(devices, MapDevice(r, includeProductCodes))
	}
	return devices
}
