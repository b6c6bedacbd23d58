package user_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/frahmantamala/inventory-management/internal"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var _ = Describe("User Service", func() {
	var (
		db      *gorm.DB
		service *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)
		ctx = context.Background()
	})

	AfterEach(func() {
		testutil.Close(db)
	})

	Describe("Create", func() {
		It("normalizes the email and hashes the password", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{
				Name:     "Buyer",
				Email:    "  Buyer@Example.COM ",
				Password: "secret",
				Role:     "purchase",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).NotTo(BeZero())
			Expect(u.Email).To(Equal("buyer@example.com"))
			Expect(u.PasswordHash).NotTo(Equal("secret"))
			Expect(user.VerifyPassword(u.PasswordHash, "secret")).To(BeTrue())
		})

		DescribeTable("role coercion",
			func(raw string, expected internal.Role) {
				u, err := service.Create(ctx, user.CreateUserDTO{Email: "r@example.com", Password: "x", Role: raw})
				Expect(err).NotTo(HaveOccurred())
				Expect(u.Role).To(Equal(expected))
			},
			Entry("admin", "admin", internal.RoleAdmin),
			Entry("purchase", "purchase", internal.RolePurchase),
			Entry("legacy consumer", "consumer", internal.RolePurchase),
			Entry("unknown", "superuser", internal.RolePurchase),
			Entry("empty", "", internal.RolePurchase),
		)

		It("requires an email before a password", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
			Expect(appErr.Message).To(Equal("email is required"))

			_, err = service.Create(ctx, user.CreateUserDTO{Email: "a@b.c"})
			appErr, _ = internal.IsAppError(err)
			Expect(appErr.Message).To(Equal("password is required"))
		})

		It("rejects duplicate emails regardless of case", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "dup@example.com", Password: "x"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, user.CreateUserDTO{Email: "DUP@example.com", Password: "y"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.Message).To(Equal("email already exists"))
		})
	})

	Describe("CreateAdmin", func() {
		It("defaults the name and forces the admin role", func() {
			u, err := service.CreateAdmin(ctx, user.CreateUserDTO{Email: "root@example.com", Password: "pw", Role: "purchase"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Name).To(Equal("Admin"))
			Expect(u.Role).To(Equal(internal.RoleAdmin))
		})
	})

	Describe("Fallback", func() {
		It("returns not found on an empty store", func() {
			_, err := service.Fallback(ctx)
			Expect(err).To(MatchError(user.ErrNotFound))
		})

		It("prefers the first admin", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{Email: "p@example.com", Password: "x"})
			Expect(err).NotTo(HaveOccurred())
			admin, err := service.Create(ctx, user.CreateUserDTO{Email: "a@example.com", Password: "x", Role: "admin"})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.Fallback(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal(admin.ID))
		})

		It("falls back to the first user without an admin", func() {
			first, err := service.Create(ctx, user.CreateUserDTO{Email: "p1@example.com", Password: "x"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, user.CreateUserDTO{Email: "p2@example.com", Password: "x"})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.Fallback(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.ID).To(Equal(first.ID))
		})
	})

	Describe("Summaries", func() {
		It("maps known ids and skips unknown ones", func() {
			u, err := service.Create(ctx, user.CreateUserDTO{Name: "Ann", Email: "ann@example.com", Password: "x"})
			Expect(err).NotTo(HaveOccurred())

			got, err := service.Summaries(ctx, []int64{u.ID, 9999})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[u.ID].Name).To(Equal("Ann"))
		})
	})
})
