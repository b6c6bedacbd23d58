package purchase

import (
	"context"
	"net/http"
	"strconv"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *internal.User, dto CreateRequestDTO) (*Request, error)
	List(ctx context.Context, actor *internal.User, status string) ([]*RequestView, error)
	Get(ctx context.Context, actor *internal.User, id int64) (*RequestView, error)
	Approve(ctx context.Context, actor *internal.User, id int64) (*Request, error)
	Reject(ctx context.Context, actor *internal.User, id int64, dto RejectRequestDTO) (*Request, error)
	History(ctx context.Context, actor *internal.User, id int64) ([]*HistoryEntry, error)
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

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNotAuthenticated)
		return
	}

	var dto CreateRequestDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	created, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	internal.MarkStoreTouched(r.Context())
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNotAuthenticated)
		return
	}

	views, err := h.Service.List(r.Context(), actor, r.URL.Query().Get("status"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, func(actor *internal.User, id int64) (interface{}, error) {
		return h.Service.Get(r.Context(), actor, id)
	})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, func(actor *internal.User, id int64) (interface{}, error) {
		return h.Service.Approve(r.Context(), actor, id)
	})
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, func(actor *internal.User, id int64) (interface{}, error) {
		var dto RejectRequestDTO
		if decodeErr := h.DecodeJSON(r, &dto); decodeErr != nil {
			// a missing or foreign request outranks a bad body
			if _, err := h.Service.Get(r.Context(), actor, id); err != nil {
				return nil, err
			}
			return nil, decodeErr
		}
		return h.Service.Reject(r.Context(), actor, id, dto)
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	h.withRequest(w, r, func(actor *internal.User, id int64) (interface{}, error) {
		return h.Service.History(r.Context(), actor, id)
	})
}

// withRequest resolves the caller and the {id} URL param, runs fn and writes
// its result with 200.
func (h *Handler) withRequest(w http.ResponseWriter, r *http.Request, fn func(actor *internal.User, id int64) (interface{}, error)) {
	internal.MarkStoreTouched(r.Context())
	actor, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrNotAuthenticated)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.HandleError(w, r, internal.ErrRequestNotFound)
		return
	}

	result, err := fn(actor, id)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, result)
}
