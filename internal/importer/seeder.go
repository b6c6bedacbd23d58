package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/inventory-management/internal/openfda"
)

// Seeder fills an empty item catalog from openFDA at startup.
type Seeder struct {
	svc *Service
}

func NewSeeder(svc *Service) *Seeder {
	return &Seeder{svc: svc}
}

// Run seeds the catalog unless imported items already exist. A narrow query
// that yields nothing falls back once to every published record. Nothing is
// purged unless there is something to import.
func (sd *Seeder) Run(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	s := sd.svc

	existing, err := s.items.CountOpenFDA(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count imported items: %w", err)
	}
	if !opts.Always && existing > 0 {
		s.logger.Info("openFDA seed skipped", "reason", ReasonAlreadySeeded, "existing", existing)
		return &SeedResult{Reason: ReasonAlreadySeeded, ExistingCount: existing}, nil
	}

	limit := openfda.ClampLimit(opts.Limit)
	search := openfda.BuildSearch(opts.Term, opts.ProductCode)

	page, err := s.source.Search(ctx, openfda.Query{Search: search, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("openFDA seed fetch failed: %w", err)
	}
	records := openfda.MapItems(page.Results, s.now())

	narrowed := strings.TrimSpace(opts.Term) != "" || strings.TrimSpace(opts.ProductCode) != ""
	if len(records) == 0 && narrowed {
		fallback, ferr := s.source.Search(ctx, openfda.Query{Search: openfda.PublishedSearch, Limit: limit})
		if ferr != nil {
			s.logger.Warn("openFDA seed fallback failed", "error", ferr)
		} else if mapped := openfda.MapItems(fallback.Results, s.now()); len(mapped) > 0 {
			records = mapped
			search = openfda.PublishedSearch
		}
	}

	if len(records) == 0 {
		s.logger.Info("openFDA seed skipped", "reason", ReasonNoResults, "search", search)
		return &SeedResult{Reason: ReasonNoResults, Search: search}, nil
	}

	result := &SeedResult{Seeded: true, Search: search, Imported: len(records)}
	if opts.PurgeNonFDA {
		purged, err := s.items.PurgeNonFDA(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to purge non-FDA items: %w", err)
		}
		result.Purged = purged
	}

	res, err := s.items.UpsertFromOpenFDA(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to seed items: %w", err)
	}
	result.Upserted = res.Upserted
	result.Matched = res.Matched
	result.Modified = res.Modified
	result.Failed = res.Failed

	s.published(ctx, TargetItems, search, res.Upserted, res.Matched, res.Failed)
	s.logger.Info("openFDA seed complete",
		"search", search,
		"imported", result.Imported,
		"upserted", result.Upserted,
		"matched", result.Matched,
		"purged", result.Purged)
	return result, nil
}
