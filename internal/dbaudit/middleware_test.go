package dbaudit_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	auditDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/audit"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/dbaudit"
	auditPostgres "github.com/frahmantamala/inventory-management/internal/dbaudit/postgres"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

type failingRepo struct{}

func (failingRepo) Create(context.Context, *auditDatamodel.DbRequestHistory) error {
	return errors.New("disk full")
}

func (failingRepo) List(context.Context, dbaudit.ListQuery) ([]*auditDatamodel.DbRequestHistory, int64, error) {
	return nil, 0, errors.New("disk full")
}

func decode(raw json.RawMessage) map[string]interface{} {
	var out map[string]interface{}
	Expect(json.Unmarshal(raw, &out)).To(Succeed())
	return out
}

var _ = Describe("Audit middleware", func() {
	var (
		db      *gorm.DB
		bus     *events.EventBus
		service *dbaudit.Service
		router  chi.Router
		ctx     context.Context
		echoed  string
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(slogger)
		service = dbaudit.NewService(auditPostgres.NewAuditRepository(db, sqlx.NewDb(sqlDB, "sqlite3")), slogger)
		service.RegisterEventHandlers(bus)
		ctx = context.Background()
		echoed = ""

		router = chi.NewRouter()
		router.Use(dbaudit.Middleware(bus, slogger))
		router.Post("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			r = r.WithContext(internal.ContextWithUser(r.Context(), &internal.User{ID: 7, Role: internal.RoleAdmin}))
			internal.MarkStoreTouched(r.Context())
			b, _ := io.ReadAll(r.Body)
			echoed = string(b)
			w.WriteHeader(http.StatusCreated)
		})
		router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("pong"))
		})
		router.Get("/history", dbaudit.NewHandler(&transport.BaseHandler{Logger: slogger}, service).List)
	})

	AfterEach(func() {
		bus.Wait()
		testutil.Close(db)
	})

	send := func(method, target, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, target, reader))
		return rec
	}

	records := func() []*dbaudit.Record {
		bus.Wait()
		res, err := service.List(ctx, dbaudit.ListQuery{Limit: 100})
		Expect(err).NotTo(HaveOccurred())
		return res.Results
	}

	It("records store-touching requests with redacted inputs", func() {
		rec := send(http.MethodPost, "/items/42?apiToken=abc&tag=a&tag=b",
			`{"name":"Gauze","password":"hunter2","nested":{"accessToken":"x","keep":1}}`)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(echoed).To(ContainSubstring("hunter2"))

		rows := records()
		Expect(rows).To(HaveLen(1))
		row := rows[0]
		Expect(row.Method).To(Equal(http.MethodPost))
		Expect(row.Path).To(Equal("/items/42?apiToken=abc&tag=a&tag=b"))
		Expect(row.StatusCode).To(Equal(http.StatusCreated))
		Expect(*row.Actor).To(Equal(int64(7)))
		Expect(*row.ActorRole).To(Equal("admin"))

		Expect(decode(row.Params)).To(Equal(map[string]interface{}{"id": "42"}))

		query := decode(row.Query)
		Expect(query["apiToken"]).To(Equal("[REDACTED]"))
		Expect(query["tag"]).To(Equal([]interface{}{"a", "b"}))

		body := decode(row.Body)
		Expect(body["name"]).To(Equal("Gauze"))
		Expect(body["password"]).To(Equal("[REDACTED]"))
		Expect(body["nested"]).To(Equal(map[string]interface{}{"accessToken": "[REDACTED]", "keep": float64(1)}))
	})

	It("skips requests that never used the store", func() {
		rec := send(http.MethodGet, "/ping", "")
		Expect(rec.Body.String()).To(Equal("pong"))
		Expect(records()).To(BeEmpty())
	})

	It("records a non-JSON body as an empty object", func() {
		send(http.MethodPost, "/items/1", "not json")
		rows := records()
		Expect(rows).To(HaveLen(1))
		Expect(decode(rows[0].Body)).To(BeEmpty())
	})

	It("lists the trail newest first through the handler", func() {
		send(http.MethodPost, "/items/1", `{}`)
		send(http.MethodPost, "/items/2", `{}`)
		bus.Wait()

		rec := send(http.MethodGet, "/history?limit=1", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var page struct {
			Total   int64             `json:"total"`
			Limit   int               `json:"limit"`
			Results []*dbaudit.Record `json:"results"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &page)).To(Succeed())
		Expect(page.Total).To(Equal(int64(2)))
		Expect(page.Limit).To(Equal(1))
		Expect(page.Results).To(HaveLen(1))
		Expect(page.Results[0].Path).To(Equal("/items/2"))
	})

	It("never lets a failed write reach the caller", func() {
		slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
		broken := events.NewEventBus(slogger)
		dbaudit.NewService(failingRepo{}, slogger).RegisterEventHandlers(broken)

		r := chi.NewRouter()
		r.Use(dbaudit.Middleware(broken, slogger))
		r.Delete("/items/{id}", func(w http.ResponseWriter, req *http.Request) {
			internal.MarkStoreTouched(req.Context())
			w.WriteHeader(http.StatusNoContent)
		})

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/items/3", nil))
		broken.Wait()
		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})
})
