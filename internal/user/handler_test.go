package user_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("User Handler Integration", func() {
	var (
		db      *gorm.DB
		handler *user.Handler
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)
		handler = user.NewHandler(&transport.BaseHandler{Logger: slogger}, service)
	})

	AfterEach(func() {
		testutil.Close(db)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.Create(w, req)
		return w
	}

	It("creates a user without leaking the hash", func() {
		w := post(`{"name":"Pat","email":"Pat@Example.com","password":"pw","role":"consumer"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))

		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["email"]).To(Equal("pat@example.com"))
		Expect(body["role"]).To(Equal("purchase"))
		Expect(body).To(HaveKey("created_at"))
		Expect(body).NotTo(HaveKey("password_hash"))
	})

	It("returns 409 for a taken email", func() {
		Expect(post(`{"email":"x@example.com","password":"pw"}`).Code).To(Equal(http.StatusCreated))
		w := post(`{"email":"x@example.com","password":"pw"}`)
		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(w.Body.String()).To(ContainSubstring("email already exists"))
	})

	It("lists users newest first", func() {
		Expect(post(`{"email":"old@example.com","password":"pw"}`).Code).To(Equal(http.StatusCreated))
		Expect(post(`{"email":"new@example.com","password":"pw"}`).Code).To(Equal(http.StatusCreated))

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		Expect(w.Code).To(Equal(http.StatusOK))

		var users []map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&users)).To(Succeed())
		Expect(users).To(HaveLen(2))
		Expect(users[0]["email"]).To(Equal("new@example.com"))
		Expect(users[0]).NotTo(HaveKey("password_hash"))
	})
})
