package dbaudit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/pkg/redact"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"gorm.io/datatypes"
)

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Middleware attaches per-request audit state and, once the handler has
// returned, publishes a record for requests that flagged store use. Recording
// never changes the response.
func Middleware(publisher EventPublisher, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, state := internal.ContextWithRequestState(r.Context())
			r = r.WithContext(ctx)

			body, note := captureBody(r)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			if !state.Touched() || publisher == nil {
				return
			}

			rec := buildRecord(r, state, ww.Status(), start, body, note)
			if err := publisher.Publish(context.WithoutCancel(ctx), events.NewDbRequestLoggedEvent(rec)); err != nil {
				logger.Warn("failed to publish audit record", "path", rec.Path, "error", err)
			}
		})
	}
}

// captureBody reads the body for the trail and hands the handler an
// equivalent reader.
func captureBody(r *http.Request) ([]byte, string) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, ""
	}
	buf, err := io.ReadAll(io.LimitReader(r.Body, maxCapturedBody+1))
	r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(buf), r.Body), Closer: r.Body}
	if err != nil {
		return nil, "body unreadable"
	}
	if len(buf) > maxCapturedBody {
		return nil, "body too large to record"
	}
	return buf, ""
}

type readCloser struct {
	io.Reader
	io.Closer
}

func buildRecord(r *http.Request, state *internal.RequestState, status int, start time.Time, body []byte, note string) *auditDatamodel.DbRequestHistory {
	if status == 0 {
		status = http.StatusOK
	}

	rec := &auditDatamodel.DbRequestHistory{
		At:         start,
		DurationMs: time.Since(start).Milliseconds(),
		Method:     r.Method,
		Path:       r.RequestURI,
		StatusCode: status,
		Params:     encode(redact.Value(routeParams(r))),
		Query:      encode(redact.Value(queryValues(r))),
		Body:       encode(redact.Value(decodeBody(body))),
		Note:       note,
	}
	if rec.Path == "" {
		rec.Path = r.URL.RequestURI()
	}
	if actor := state.Actor(); actor != nil {
		id := actor.ID
		role := string(actor.Role)
		rec.Actor = &id
		rec.ActorRole = &role
	}
	return rec
}

func routeParams(r *http.Request) map[string]any {
	params := map[string]any{}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return params
	}
	for i, key := range rctx.URLParams.Keys {
		if key == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

// queryValues keeps single values as strings and repeated keys as lists.
func queryValues(r *http.Request) map[string]any {
	out := map[string]any{}
	for k, vs := range r.URL.Query() {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[k] = list
	}
	return out
}

// decodeBody returns the JSON body, or an empty object when there is none
// or it is not JSON.
func decodeBody(body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return map[string]any{}
	}
	return v
}

func encode(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
