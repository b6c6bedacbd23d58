// Package importer pulls UDI records from openFDA into the local item and
// medical-device catalogs.
package importer

import (
	"strings"

	"github.com/frahmantamala/inventory-management/internal/openfda"
)

const (
	ModeUpsert  = "upsert"
	ModeReplace = "replace"

	TargetItems   = "items"
	TargetDevices = "devices"
)

// Request describes one page to pull from openFDA.
type Request struct {
	Term                string
	ProductCode         string
	Limit               int
	Skip                int
	Mode                string
	IncludeProductCodes bool
}

func (r Request) normalize() Request {
	r.Term = strings.TrimSpace(r.Term)
	r.ProductCode = strings.TrimSpace(r.ProductCode)
	r.Mode = strings.ToLower(strings.TrimSpace(r.Mode))
	if r.Mode == "" {
		r.Mode = ModeUpsert
	}
	if r.Limit < 1 {
		r.Limit = 1
	}
	if r.Limit > openfda.MaxLimit {
		r.Limit = openfda.MaxLimit
	}
	if r.Skip < 0 {
		r.Skip = 0
	}
	return r
}

func (r Request) query() openfda.Query {
	return openfda.Query{Search: r.search(), Limit: r.Limit, Skip: r.Skip}
}

func (r Request) search() string {
	return openfda.BuildSearch(r.Term, r.ProductCode)
}

// FetchResult is a browse page. Result and Results carry the same list.
type FetchResult struct {
	Source              string                 `json:"source"`
	Search              string                 `json:"search"`
	Term                string                 `json:"term"`
	ProductCode         string                 `json:"product_code"`
	IncludeProductCodes bool                   `json:"include_product_codes"`
	Limit               int                    `json:"limit"`
	Skip                int                    `json:"skip"`
	Total               *int64                 `json:"total"`
	Result              []openfda.DeviceRecord `json:"result"`
	Results             []openfda.DeviceRecord `json:"results"`
}

type ItemImportResult struct {
	Source      string               `json:"source"`
	Mode        string               `json:"mode"`
	Search      string               `json:"search"`
	Term        string               `json:"term"`
	ProductCode string               `json:"product_code"`
	Imported    int                  `json:"imported"`
	Upserted    int                  `json:"upserted"`
	Matched     int                  `json:"matched"`
	Modified    int                  `json:"modified"`
	Failed      int                  `json:"failed"`
	Result      []openfda.ItemRecord `json:"result"`
}

type DeviceImportResult struct {
	Source      string                 `json:"source"`
	Search      string                 `json:"search"`
	Term        string                 `json:"term"`
	ProductCode string                 `json:"product_code"`
	Imported    int                    `json:"imported"`
	Upserted    int                    `json:"upserted"`
	Matched     int                    `json:"matched"`
	Modified    int                    `json:"modified"`
	Failed      int                    `json:"failed"`
	Result      []openfda.DeviceRecord `json:"result"`
}

// SeedOptions control a startup seed run.
type SeedOptions struct {
	Term        string
	ProductCode string
	Limit       int
	Always      bool
	PurgeNonFDA bool
}

const (
	ReasonAlreadySeeded = "already-seeded"
	ReasonNoResults     = "no-results"
)

type SeedResult struct {
	Seeded        bool   `json:"seeded"`
	Reason        string `json:"reason,omitempty"`
	ExistingCount int64  `json:"existing_count,omitempty"`
	Search        string `json:"search,omitempty"`
	Purged        int64  `json:"purged,omitempty"`
	Imported      int    `json:"imported"`
	Upserted      int    `json:"upserted"`
	Matched       int    `json:"matched"`
	Modified      int    `json:"modified"`
	Failed        int    `json:"failed"`
}
