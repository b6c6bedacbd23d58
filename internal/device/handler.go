package device

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Get(ctx context.Context, recordKey string) (*Device, error)
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

// List handles GET /api/devices?term=&limit=&skip=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())

	result, err := h.Service.List(r.Context(), ListQuery{
		Term:  transport.QueryFirst(r, "term", "q"),
		Limit: transport.QueryInt(r, "limit", DefaultLimit),
		Skip:  transport.QueryInt(r, "skip", 0),
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())

	d, err := h.Service.Get(r.Context(), chi.URLParam(r, "recordKey"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d)
}
