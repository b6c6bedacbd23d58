package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	deviceDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/device"
	"github.com/frahmantamala/inventory-management/internal/openfda"
)

type RepositoryAPI interface {
	List(ctx context.Context, q ListQuery) ([]*deviceDatamodel.MedicalDevice, int64, error)
	GetByRecordKey(ctx context.Context, recordKey string) (*deviceDatamodel.MedicalDevice, error)
	UpsertByRecordKey(ctx context.Context, rows []*deviceDatamodel.MedicalDevice) (UpsertResult, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	q = q.Normalize()
	q.Term = strings.TrimSpace(q.Term)

	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	results := make([]*Device, 0, len(rows))
	for _, r := range rows {
		results = append(results, FromDataModel(r))
	}
	return &ListResult{Total: total, Limit: q.Limit, Skip: q.Skip, Results: results}, nil
}

func (s *Service) Get(ctx context.Context, recordKey string) (*Device, error) {
	recordKey = strings.TrimSpace(recordKey)
	if recordKey == "" {
		return nil, internal.NewValidationFieldError("record_key", "recordKey is required", internal.ErrCodeValidationFailed)
	}

	row, err := s.repo.GetByRecordKey(ctx, recordKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	return FromDataModel(row), nil
}

// UpsertFromOpenFDA writes every record that carries a record key. Existing
// rows are overwritten with the upstream values.
func (s *Service) UpsertFromOpenFDA(ctx context.Context, records []openfda.DeviceRecord, syncedAt time.Time) (UpsertResult, error) {
	rows := make([]*deviceDatamodel.MedicalDevice, 0, len(records))
	for _, r := range records {
		key := strings.TrimSpace(derefString(r.RecordKey))
		if key == "" {
			continue
		}
		synced := syncedAt
		rows = append(rows, &deviceDatamodel.MedicalDevice{
			RecordKey:                    key,
			RecordStatus:                 r.RecordStatus,
			PublishDate:                  r.PublishDate,
			PublicVersionNumber:          r.PublicVersionNumber,
			PublicVersionDate:            r.PublicVersionDate,
			BrandName:                    r.BrandName,
			CompanyName:                  r.CompanyName,
			CatalogNumber:                r.CatalogNumber,
			VersionOrModelNumber:         r.VersionOrModelNumber,
			DeviceDescription:            r.DeviceDescription,
			MedicalDeviceNames:           r.MedicalDeviceNames,
			DeviceClasses:                r.DeviceClasses,
			RegulationNumbers:            r.RegulationNumbers,
			MedicalSpecialtyDescriptions: r.MedicalSpecialtyDescriptions,
			GMDNTerms:                    toDataModelTerms(r.GMDNTerms),
			Source:                       openfda.SourceName,
			LastSyncedAt:                 &synced,
		})
	}

	res, err := s.repo.UpsertByRecordKey(ctx, rows)
	if err != nil {
		return res, fmt.Errorf("failed to upsert devices: %w", err)
	}
	s.logger.Info("devices upserted", "upserted", res.Upserted, "matched", res.Matched, "failed", res.Failed)
	return res, nil
}

func toDataModelTerms(terms []openfda.GMDNTerm) []deviceDatamodel.GMDNTerm {
	out := make([]deviceDatamodel.GMDNTerm, 0, len(terms))
	for _, t := range terms {
		out = append(out, deviceDatamodel.GMDNTerm{Code: t.Code, Name: t.Name, Definition: t.Definition})
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
