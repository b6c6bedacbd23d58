package importer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/device"
	"github.com/frahmantamala/inventory-management/internal/item"
	"github.com/frahmantamala/inventory-management/internal/openfda"
)

type ItemCatalog interface {
	CountOpenFDA(ctx context.Context) (int64, error)
	DeleteOpenFDA(ctx context.Context) (int64, error)
	PurgeNonFDA(ctx context.Context) (int64, error)
	UpsertFromOpenFDA(ctx context.Context, records []openfda.ItemRecord) (item.UpsertResult, error)
}

type DeviceCatalog interface {
	UpsertFromOpenFDA(ctx context.Context, records []openfda.DeviceRecord, syncedAt time.Time) (device.UpsertResult, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	source    openfda.Searcher
	browse    openfda.Searcher
	items     ItemCatalog
	devices   DeviceCatalog
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(source openfda.Searcher, items ItemCatalog, devices DeviceCatalog, publisher EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		source:    source,
		browse:    source,
		items:     items,
		devices:   devices,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithBrowseSearcher routes read-only fetches through s, typically a cache.
// Imports always go to the source.
func (s *Service) WithBrowseSearcher(searcher openfda.Searcher) *Service {
	if searcher != nil {
		s.browse = searcher
	}
	return s
}

// Fetch returns one page of mapped device records without writing anything.
func (s *Service) Fetch(ctx context.Context, req Request) (*FetchResult, error) {
	req = req.normalize()
	q := req.query()

	page, err := s.browse.Search(ctx, q)
	if err != nil {
		return nil, upstreamError(err)
	}

	mapped := openfda.MapDevices(page.Results, req.IncludeProductCodes)
	total := page.Total
	if total == nil && len(page.Results) == 0 {
		var zero int64
		total = &zero
	}

	return &FetchResult{
		Source:              openfda.SourceName,
		Search:              q.Search,
		Term:                req.Term,
		ProductCode:         req.ProductCode,
		IncludeProductCodes: req.IncludeProductCodes,
		Limit:               q.Limit,
		Skip:                q.Skip,
		Total:               total,
		Result:              mapped,
		Results:             mapped,
	}, nil
}

// ImportItems writes one page of openFDA records into the item catalog. In
// replace mode previously imported items are removed first, but only once the
// upstream has answered with data.
func (s *Service) ImportItems(ctx context.Context, req Request) (*ItemImportResult, error) {
	req = req.normalize()
	if req.Term == "" && req.ProductCode == "" {
		return nil, internal.NewValidationError("term or productCode is required", internal.ErrCodeMissingQuery)
	}
	if req.Mode != ModeUpsert && req.Mode != ModeReplace {
		return nil, internal.NewValidationError("mode must be 'upsert' or 'replace'", internal.ErrCodeInvalidMode)
	}

	q := req.query()
	result := &ItemImportResult{
		Source:      openfda.SourceName,
		Mode:        req.Mode,
		Search:      q.Search,
		Term:        req.Term,
		ProductCode: req.ProductCode,
		Result:      []openfda.ItemRecord{},
	}

	page, err := s.source.Search(ctx, q)
	if err != nil {
		return nil, upstreamError(err)
	}
	if len(page.Results) == 0 {
		return result, nil
	}

	internal.MarkStoreTouched(ctx)
	if req.Mode == ModeReplace {
		deleted, err := s.items.DeleteOpenFDA(ctx)
		if err != nil {
			return nil, internal.NewInternalError("failed to clear imported items", err)
		}
		s.logger.Info("imported items cleared for replace", "deleted", deleted)
	}

	mapped := openfda.MapItems(page.Results, s.now())
	res, err := s.items.UpsertFromOpenFDA(ctx, mapped)
	if err != nil {
		return nil, internal.NewInternalError("failed to import items", err)
	}

	result.Imported = len(mapped)
	result.Upserted = res.Upserted
	result.Matched = res.Matched
	result.Modified = res.Modified
	result.Failed = res.Failed
	result.Result = mapped

	s.published(ctx, TargetItems, q.Search, res.Upserted, res.Matched, res.Failed)
	return result, nil
}

// ImportDevices writes every mapped record that has a record key into the
// reference catalog. Matched rows are always rewritten, so modified equals
// matched.
func (s *Service) ImportDevices(ctx context.Context, req Request) (*DeviceImportResult, error) {
	req = req.normalize()
	q := req.query()

	page, err := s.source.Search(ctx, q)
	if err != nil {
		return nil, upstreamError(err)
	}

	mapped := openfda.MapDevices(page.Results, false)
	result := &DeviceImportResult{
		Source:      openfda.SourceName,
		Search:      q.Search,
		Term:        req.Term,
		ProductCode: req.ProductCode,
		Imported:    len(mapped),
		Result:      mapped,
	}
	if len(mapped) == 0 {
		return result, nil
	}

	internal.MarkStoreTouched(ctx)
	res, err := s.devices.UpsertFromOpenFDA(ctx, mapped, s.now())
	if err != nil {
		return nil, internal.NewInternalError("failed to import devices", err)
	}

	result.Upserted = res.Upserted
	result.Matched = res.Matched
	result.Modified = res.Matched
	result.Failed = res.Failed

	s.published(ctx, TargetDevices, q.Search, res.Upserted, res.Matched, res.Failed)
	return result, nil
}

func (s *Service) published(ctx context.Context, target, search string, upserted, matched, failed int) {
	if s.publisher == nil {
		return
	}
	event := events.NewCatalogImportedEvent(target, search, upserted, matched, failed)
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("failed to publish catalog import event", "target", target, "error", err)
	}
}

// upstreamError maps openFDA failures: a malformed body or a non-2xx answer
// is a bad gateway, anything at the transport level is ours.
func upstreamError(err error) error {
	if errors.Is(err, openfda.ErrUnexpectedResponse) {
		return internal.ErrUpstreamUnexpected.WithCause(err)
	}
	var upstream *openfda.UpstreamError
	if errors.As(err, &upstream) {
		msg := upstream.Message
		if msg == "" {
			msg = upstream.Error()
		}
		return internal.NewGatewayError(msg, internal.ErrCodeUpstreamFailed, err)
	}
	return internal.NewInternalError("openFDA request failed", err)
}
