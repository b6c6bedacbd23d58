package importer

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal/openfda"
	"github.com/frahmantamala/inventory-management/internal/transport"
)

type ServiceAPI interface {
	Fetch(ctx context.Context, req Request) (*FetchResult, error)
	ImportItems(ctx context.Context, req Request) (*ItemImportResult, error)
	ImportDevices(ctx context.Context, req Request) (*DeviceImportResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

func requestFrom(r *http.Request) Request {
	return Request{
		Term:                transport.QueryFirst(r, "term", "q"),
		ProductCode:         transport.QueryFirst(r, "productCode", "product_code"),
		Limit:               transport.QueryInt(r, "limit", openfda.DefaultLimit),
		Skip:                transport.QueryInt(r, "skip", 0),
		Mode:                transport.QueryFirst(r, "mode"),
		IncludeProductCodes: transport.QueryBool(r, "includeProductCodes") || transport.QueryBool(r, "include_product_codes"),
	}
}

func (h *Handler) FetchDevices(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Fetch(r.Context(), requestFrom(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ImportDevices(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ImportDevices(r.Context(), requestFrom(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) ImportItems(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.ImportItems(r.Context(), requestFrom(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}
