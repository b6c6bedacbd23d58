package dbaudit

import (
	"context"
	"net/http"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
)

type ServiceAPI interface {
	List(ctx context.Context, q ListQuery) (*ListResult, error)
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())

	res, err := h.Service.List(r.Context(), ListQuery{
		Limit: transport.QueryInt(r, "limit", DefaultLimit),
		Skip:  transport.QueryInt(r, "skip", 0),
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, res)
}
