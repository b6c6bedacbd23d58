package item

import (
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
)

type CreateItemDTO struct {
	Name         string `json:"name"`
	Qty          *int64 `json:"qty"`
	Category     string `json:"category"`
	Manufacturer string `json:"manufacturer"`
	Unit         string `json:"unit"`
	ReorderLevel *int64 `json:"reorder_level"`
}

func (dto *CreateItemDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MaxLength(500)
	if dto.Qty != nil {
		v.Field("qty", *dto.Qty).MinInt(0, internal.ErrCodeInvalidQuantity)
	}
	if dto.ReorderLevel != nil {
		v.Field("reorder_level", *dto.ReorderLevel).MinInt(0, internal.ErrCodeValidationFailed)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// ToItem applies the catalog defaults to omitted fields.
func (dto *CreateItemDTO) ToItem() *Item {
	i := &Item{
		Name:         strings.TrimSpace(dto.Name),
		Category:     orDefault(dto.Category, DefaultCategory),
		Manufacturer: orDefault(dto.Manufacturer, DefaultManufacturer),
		Unit:         orDefault(dto.Unit, DefaultUnit),
		ReorderLevel: DefaultReorderLevel,
		Source:       itemDatamodel.SourceManual,
	}
	if dto.Qty != nil {
		i.Qty = *dto.Qty
	}
	if dto.ReorderLevel != nil {
		i.ReorderLevel = *dto.ReorderLevel
	}
	return i
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
