package purchase

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/core/common/validation"
)

// CreateRequestDTO accepts numbers or numeric strings for both ids and
// quantities, under either key spelling for the item id.
type CreateRequestDTO struct {
	ItemID      json.RawMessage `json:"item_id"`
	ItemIDCamel json.RawMessage `json:"itemId"`
	Qty         json.RawMessage `json:"qty"`
	Reason      string          `json:"reason"`
}

type RejectRequestDTO struct {
	Message string `json:"message"`
}

// Parsed is a validated create request.
type Parsed struct {
	ItemID int64
	Qty    int64
	Reason string
}

// Parse checks the item id, then the quantity.
func (dto *CreateRequestDTO) Parse() (*Parsed, error) {
	raw := dto.ItemID
	if isBlank(raw) {
		raw = dto.ItemIDCamel
	}
	if isBlank(raw) {
		return nil, internal.NewValidationFieldError("item_id", "itemId is required", internal.ErrCodeValidationFailed)
	}

	qty, ok := wholeNumber(dto.Qty)
	if !ok {
		qty = 0
	}
	if err := validation.ValidateQuantity(qty); err != nil {
		return nil, err
	}

	// an id that is not a number cannot name an item
	itemID, ok := wholeNumber(raw)
	if !ok {
		return nil, internal.ErrItemNotFound
	}

	return &Parsed{ItemID: itemID, Qty: qty, Reason: dto.Reason}, nil
}

func isBlank(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == `""` || s == "0" || s == "false"
}

// wholeNumber reads a JSON number or numeric string holding an integer.
func wholeNumber(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
