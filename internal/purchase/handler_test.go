package purchase_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/item"
	itemPostgres "github.com/frahmantamala/inventory-management/internal/item/postgres"
	"github.com/frahmantamala/inventory-management/internal/purchase"
	purchasePostgres "github.com/frahmantamala/inventory-management/internal/purchase/postgres"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("Purchase Handler Integration", func() {
	var (
		db     *gorm.DB
		router chi.Router
		admin  *internal.User
		buyer  *internal.User
		itemID int64
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		ctx := context.Background()

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		users := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)
		items := item.NewService(itemPostgres.NewItemRepository(db), slogger)
		service := purchase.NewService(purchasePostgres.NewPurchaseRepository(db), items, users, nil, slogger)
		handler := purchase.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		a, err := users.Create(ctx, user.CreateUserDTO{Email: "admin@example.com", Password: "x", Role: "admin"})
		Expect(err).NotTo(HaveOccurred())
		admin = a.Identity()
		b, err := users.Create(ctx, user.CreateUserDTO{Email: "buyer@example.com", Password: "x"})
		Expect(err).NotTo(HaveOccurred())
		buyer = b.Identity()

		it, err := items.Create(ctx, item.CreateItemDTO{Name: "Mask"})
		Expect(err).NotTo(HaveOccurred())
		itemID = it.ID

		router = chi.NewRouter()
		router.Post("/api/requests", handler.Create)
		router.Get("/api/requests", handler.List)
		router.Get("/api/requests/{id}", handler.Get)
		router.Post("/api/requests/{id}/approve", handler.Approve)
		router.Post("/api/requests/{id}/reject", handler.Reject)
		router.Get("/api/requests/{id}/history", handler.History)
	})

	AfterEach(func() {
		testutil.Close(db)
	})

	do := func(as *internal.User, method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(internal.ContextWithUser(req.Context(), as))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("runs a request through creation and approval", func() {
		w := do(buyer, http.MethodPost, "/api/requests", `{"item_id":`+strconv.FormatInt(itemID, 10)+`,"qty":2,"reason":"ward B"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var created purchase.Request
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		path := "/api/requests/" + strconv.FormatInt(created.ID, 10)

		w = do(admin, http.MethodPost, path+"/approve", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"status":"approved"`))

		w = do(admin, http.MethodPost, path+"/reject", `{"message":"late"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Request is already approved"))

		w = do(buyer, http.MethodGet, path+"/history", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var history []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&history)).To(Succeed())
		Expect(history).To(HaveLen(2))
	})

	It("returns 404 for a non-numeric id", func() {
		w := do(admin, http.MethodGet, "/api/requests/abc", "")
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("Request not found"))
	})

	It("reports a missing request before a malformed reject body", func() {
		w := do(admin, http.MethodPost, "/api/requests/9999/reject", `{"message":`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("Request not found"))

		w = do(buyer, http.MethodPost, "/api/requests", `{"item_id":`+strconv.FormatInt(itemID, 10)+`,"qty":1}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		var created purchase.Request
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())

		w = do(admin, http.MethodPost, "/api/requests/"+strconv.FormatInt(created.ID, 10)+"/reject", `{"message":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("renders user references on reads", func() {
		w := do(buyer, http.MethodPost, "/api/requests", `{"itemId":"`+strconv.FormatInt(itemID, 10)+`","qty":"1"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		w = do(admin, http.MethodGet, "/api/requests", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var views []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&views)).To(Succeed())
		Expect(views).To(HaveLen(1))
		Expect(views[0]["requested_by"]).To(HaveKeyWithValue("email", "buyer@example.com"))
		Expect(views[0]["approved_by"]).To(BeNil())
	})
})
