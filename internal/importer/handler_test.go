package importer_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/importer"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubService struct {
	last importer.Request
	err  error
}

func (s *stubService) Fetch(_ context.Context, req importer.Request) (*importer.FetchResult, error) {
	s.last = req
	return &importer.FetchResult{Source: "openfda", Term: req.Term}, s.err
}

func (s *stubService) ImportItems(_ context.Context, req importer.Request) (*importer.ItemImportResult, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &importer.ItemImportResult{Source: "openfda", Mode: req.Mode}, nil
}

func (s *stubService) ImportDevices(_ context.Context, req importer.Request) (*importer.DeviceImportResult, error) {
	s.last = req
	return &importer.DeviceImportResult{Source: "openfda"}, s.err
}

var _ = Describe("Importer Handler", func() {
	var (
		stub   *stubService
		router chi.Router
	)

	BeforeEach(func() {
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		stub = &stubService{}
		h := importer.NewHandler(&transport.BaseHandler{Logger: slogger}, stub)

		router = chi.NewRouter()
		router.Get("/openfda/devices", h.FetchDevices)
		router.Post("/openfda/devices", h.ImportDevices)
		router.Post("/openfda/items", h.ImportItems)
	})

	do := func(method, target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
		return rec
	}

	It("reads the browse parameters from the query string", func() {
		rec := do(http.MethodGet, "/openfda/devices?q=pump&productCode=FMF&limit=7&skip=14&includeProductCodes=Yes")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.last).To(Equal(importer.Request{
			Term:                "pump",
			ProductCode:         "FMF",
			Limit:               7,
			Skip:                14,
			IncludeProductCodes: true,
		}))
	})

	It("prefers term over q and defaults the limit", func() {
		do(http.MethodPost, "/openfda/devices?term=syringe&q=pump")
		Expect(stub.last.Term).To(Equal("syringe"))
		Expect(stub.last.Limit).To(Equal(25))
	})

	It("passes the import mode through", func() {
		rec := do(http.MethodPost, "/openfda/items?product_code=FMF&mode=replace")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(stub.last.ProductCode).To(Equal("FMF"))

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["mode"]).To(Equal("replace"))
	})

	It("writes service errors as JSON", func() {
		stub.err = internal.NewValidationError("term or productCode is required", internal.ErrCodeMissingQuery)

		rec := do(http.MethodPost, "/openfda/items")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		var body map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["message"]).To(Equal("term or productCode is required"))
	})
})
