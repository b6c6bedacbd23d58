// Package openfda talks to the openFDA device UDI endpoint and maps its
// records onto inventory items and medical-device reference records.
package openfda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	DefaultBaseURL = "https://api.fda.gov"
	udiPath        = "/device/udi.json"

	DefaultLimit = 25
	MaxLimit     = 100

	SourceName = "openfda"
)

var (
	// ErrUnexpectedResponse means the upstream body had no results list.
	ErrUnexpectedResponse = errors.New("openFDA returned unexpected data")
)

// UpstreamError is a non-2xx, non-404 answer from openFDA.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openFDA request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("openFDA request failed with status %d: %s", e.StatusCode, e.Message)
}

// Query is one page request against the UDI endpoint.
type Query struct {
	Search string
	Limit  int
	Skip   int
}

// Normalize clamps limit to 1..100 (0 means default) and skip to >= 0.
func (q Query) Normalize() Query {
	q.Limit = ClampLimit(q.Limit)
	if q.Skip < 0 {
		q.Skip = 0
	}
	return q
}

func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Page is a decoded UDI response. Total is nil when the upstream omits it.
type Page struct {
	Total   *int64
	Results []Record
}

// Searcher fetches one page. A 404 upstream is an empty page, not an error.
type Searcher interface {
	Search(ctx context.Context, q Query) (*Page, error)
}

type Record struct {
	PublicDeviceRecordKey *string       `json:"public_device_record_key,omitempty"`
	RecordKey             *string       `json:"record_key,omitempty"`
	RecordStatus          *string       `json:"record_status,omitempty"`
	PublishDate           *string       `json:"publish_date,omitempty"`
	PublicVersionNumber   *string       `json:"public_version_number,omitempty"`
	PublicVersionDate     *string       `json:"public_version_date,omitempty"`
	BrandName             *string       `json:"brand_name,omitempty"`
	CompanyName           *string       `json:"company_name,omitempty"`
	CatalogNumber         *string       `json:"catalog_number,omitempty"`
	VersionOrModelNumber  *string       `json:"version_or_model_number,omitempty"`
	DeviceDescription     *string       `json:"device_description,omitempty"`
	ProductCodes          []ProductCode `json:"product_codes,omitempty"`
	GMDNTerms             []GMDNTerm    `json:"gmdn_terms,omitempty"`
}

type ProductCode struct {
	Code    *string         `json:"code"`
	Name    *string         `json:"name"`
	OpenFDA *ProductOpenFDA `json:"openfda"`
}

type ProductOpenFDA struct {
	DeviceName                  *string `json:"device_name"`
	DeviceClass                 *string `json:"device_class"`
	RegulationNumber            *string `json:"regulation_number"`
	MedicalSpecialtyDescription *string `json:"medical_specialty_description"`
}

type GMDNTerm struct {
	Code       *string `json:"code"`
	Name       *string `json:"name"`
	Definition *string `json:"definition"`
}

type envelope struct {
	Meta *struct {
		Results *struct {
			Total *int64 `json:"total"`
		} `json:"results"`
	} `json:"meta"`
	Results json.RawMessage `json:"results"`
}

// decodePage requires a JSON array under results.
func decodePage(body []byte) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if len(env.Results) == 0 || env.Results[0] != '[' {
		return nil, ErrUnexpectedResponse
	}

	page := &Page{}
	if err := json.Unmarshal(env.Results, &page.Results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	if env.Meta != nil && env.Meta.Results != nil {
		page.Total = env.Meta.Results.Total
	}
	return page, nil
}
