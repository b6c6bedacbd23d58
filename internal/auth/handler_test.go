package auth_test

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
	"github.com/frahmantamala/inventory-management/internal/auth"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/transport"
	"github.com/frahmantamala/inventory-management/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

var _ = Describe("Auth Handler", func() {
	var (
		db      *gorm.DB
		users   *user.Service
		handler *auth.Handler
		buyer   *user.User
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		users = newUsers(db)

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service := newAuth(users, auth.Options{AdminSignupToken: "s3cret", TrustIdentityHeaders: true})
		handler = auth.NewHandler(&transport.BaseHandler{Logger: slogger}, service)

		buyer, err = users.Create(context.Background(), user.CreateUserDTO{Name: "Buyer", Email: "buyer@example.com", Password: "pw"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		testutil.Close(db)
	})

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := internal.UserFromContext(r.Context())
		_ = json.NewEncoder(w).Encode(u)
	})

	It("attaches the resolved user without flagging the request for audit", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("X-User-ID", strconv.FormatInt(buyer.ID, 10))
		reqCtx, state := internal.ContextWithRequestState(req.Context())
		req = req.WithContext(reqCtx)
		w := httptest.NewRecorder()

		handler.AuthMiddleware(echo).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("buyer@example.com"))
		Expect(state.Touched()).To(BeFalse())
		Expect(state.Actor().ID).To(Equal(buyer.ID))
	})

	It("returns 401 Not authenticated without a resolvable caller", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		w := httptest.NewRecorder()

		handler.AuthMiddleware(echo).ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("Not authenticated"))
	})

	Describe("RequireRoles", func() {
		gate := func(role internal.Role, allowed ...internal.Role) int {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if role != "" {
				req = req.WithContext(internal.ContextWithUser(req.Context(), &internal.User{ID: 1, Role: role}))
			}
			w := httptest.NewRecorder()
			handler.RequireRoles(allowed...)(echo).ServeHTTP(w, req)
			return w.Code
		}

		It("returns 401 with no identity", func() {
			Expect(gate("", internal.RoleAdmin)).To(Equal(http.StatusUnauthorized))
		})

		It("returns 403 for a role outside the set", func() {
			Expect(gate(internal.RolePurchase, internal.RoleAdmin)).To(Equal(http.StatusForbidden))
		})

		It("passes members through", func() {
			Expect(gate(internal.RolePurchase, internal.RoleAdmin, internal.RolePurchase)).To(Equal(http.StatusOK))
		})
	})

	It("signs up an admin", func() {
		body := `{"name":"","email":"root@example.com","password":"pw","adminSignupToken":"s3cret"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/admin/signup", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.Signup(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var session auth.Session
		Expect(json.NewDecoder(w.Body).Decode(&session)).To(Succeed())
		Expect(session.User.Role).To(Equal(internal.RoleAdmin))
		Expect(session.Auth.Mode).To(Equal("header"))
	})

	It("answers GET on signup with 405", func() {
		w := httptest.NewRecorder()
		handler.SignupHint(w, httptest.NewRequest(http.MethodGet, "/api/auth/admin/signup", nil))
		Expect(w.Code).To(Equal(http.StatusMethodNotAllowed))
		Expect(w.Body.String()).To(ContainSubstring("adminSignupToken"))
	})

	It("logs in and reports invalid credentials", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"buyer@example.com","password":"pw"}`))
		w := httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		req = httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"buyer@example.com","password":"bad"}`))
		w = httptest.NewRecorder()
		handler.Login(w, req)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(w.Body.String()).To(ContainSubstring("invalid credentials"))
	})
})
