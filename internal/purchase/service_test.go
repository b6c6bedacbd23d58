package purchase_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	"github.com/frahmantamala/inventory-management/internal/core/events"
	"github.com/frahmantamala/inventory-management/internal/item"
	itemPostgres "github.com/frahmantamala/inventory-management/internal/item/postgres"
	"github.com/frahmantamala/inventory-management/internal/purchase"
	purchasePostgres "github.com/frahmantamala/inventory-management/internal/purchase/postgres"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	"github.com/frahmantamala/inventory-management/internal/user"
	userPostgres "github.com/frahmantamala/inventory-management/internal/user/postgres"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func createDTO(itemID, qty string) purchase.CreateRequestDTO {
	dto := purchase.CreateRequestDTO{Reason: "restock"}
	if itemID != "" {
		dto.ItemID = json.RawMessage(itemID)
	}
	if qty != "" {
		dto.Qty = json.RawMessage(qty)
	}
	return dto
}

func appStatus(err error) (int, string) {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	return appErr.StatusCode, appErr.Message
}

type recorder struct {
	mu     sync.Mutex
	events []*events.RequestTransitionEvent
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.(*events.RequestTransitionEvent))
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType())
	}
	return out
}

var _ = Describe("Purchase Service", func() {
	var (
		db       *gorm.DB
		repo     purchase.RepositoryAPI
		service  *purchase.Service
		bus      *events.EventBus
		seen     *recorder
		ctx      context.Context
		admin    *internal.User
		buyer    *internal.User
		other    *internal.User
		gauze    *item.Item
		idString string
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		users := user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)
		items := item.NewService(itemPostgres.NewItemRepository(db), slogger)

		bus = events.NewEventBus(slogger)
		seen = &recorder{}
		for _, t := range []string{events.EventTypeRequestCreated, events.EventTypeRequestApproved, events.EventTypeRequestRejected} {
			bus.Subscribe(t, seen.handle)
		}

		repo = purchasePostgres.NewPurchaseRepository(db)
		service = purchase.NewService(repo, items, users, bus, slogger)

		mk := func(email, role string) *internal.User {
			u, err := users.Create(ctx, user.CreateUserDTO{Name: email, Email: email, Password: "x", Role: role})
			Expect(err).NotTo(HaveOccurred())
			return u.Identity()
		}
		admin = mk("admin@example.com", "admin")
		buyer = mk("buyer@example.com", "purchase")
		other = mk("other@example.com", "purchase")

		qty := int64(5)
		gauze, err = items.Create(ctx, item.CreateItemDTO{Name: "Gauze", Qty: &qty})
		Expect(err).NotTo(HaveOccurred())
		idString, _ = jsonString(gauze.ID)
	})

	AfterEach(func() {
		bus.Wait()
		testutil.Close(db)
	})

	stock := func() int64 {
		var row itemDatamodel.Item
		Expect(db.First(&row, gauze.ID).Error).To(Succeed())
		return row.Qty
	}

	Describe("Create", func() {
		It("files a pending request with a created history entry", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, `"3"`))
			Expect(err).NotTo(HaveOccurred())
			Expect(req.Status).To(Equal(purchase.StatusPending))
			Expect(req.ItemName).To(Equal("Gauze"))
			Expect(req.Qty).To(Equal(int64(3)))
			Expect(req.RequestedBy).To(Equal(buyer.ID))

			history, err := service.History(ctx, buyer, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(history[0].Action).To(Equal(purchase.ActionCreated))
			Expect(history[0].Message).To(Equal("Request created"))
			Expect(history[0].Actor.Email).To(Equal("buyer@example.com"))
			Expect(history[0].Snapshot.Status).To(Equal(purchase.StatusPending))

			bus.Wait()
			Expect(seen.types()).To(ConsistOf(events.EventTypeRequestCreated))
		})

		DescribeTable("validation order",
			func(itemID, qty string, status int, message string) {
				_, err := service.Create(ctx, buyer, createDTO(itemID, qty))
				code, msg := appStatus(err)
				Expect(code).To(Equal(status))
				Expect(msg).To(Equal(message))
			},
			Entry("missing item id", "", "1", 400, "itemId is required"),
			Entry("missing item id wins over bad qty", "", "-1", 400, "itemId is required"),
			Entry("missing qty", "1", "", 400, "qty must be a number greater than 0"),
			Entry("zero qty", "1", "0", 400, "qty must be a number greater than 0"),
			Entry("fractional qty", "1", "1.5", 400, "qty must be a number greater than 0"),
			Entry("non-numeric qty", "1", `"lots"`, 400, "qty must be a number greater than 0"),
			Entry("unknown item", "999", "1", 404, "Item not found"),
		)

		It("accepts the camel-case item id key", func() {
			dto := purchase.CreateRequestDTO{ItemIDCamel: json.RawMessage(idString), Qty: json.RawMessage("2")}
			req, err := service.Create(ctx, buyer, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.ItemID).To(Equal(gauze.ID))
		})
	})

	Describe("visibility", func() {
		var mine *purchase.Request

		BeforeEach(func() {
			var err error
			mine, err = service.Create(ctx, buyer, createDTO(idString, "1"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, other, createDTO(idString, "2"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("shows admins everything, newest first", func() {
			views, err := service.List(ctx, admin, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(2))
			Expect(views[0].RequestedBy.Email).To(Equal("other@example.com"))
		})

		It("shows other roles only their own", func() {
			views, err := service.List(ctx, buyer, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].ID).To(Equal(mine.ID))
		})

		It("filters by status", func() {
			_, err := service.Approve(ctx, admin, mine.ID)
			Expect(err).NotTo(HaveOccurred())

			views, err := service.List(ctx, admin, "approved")
			Expect(err).NotTo(HaveOccurred())
			Expect(views).To(HaveLen(1))
			Expect(views[0].ApprovedBy.Email).To(Equal("admin@example.com"))
		})

		It("forbids reading someone else's request or history", func() {
			_, err := service.Get(ctx, other, mine.ID)
			Expect(err).To(MatchError(internal.ErrForbidden))
			_, err = service.History(ctx, other, mine.ID)
			Expect(err).To(MatchError(internal.ErrForbidden))
		})

		It("returns 404 for unknown ids", func() {
			_, err := service.Get(ctx, admin, 9999)
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
			_, err = service.History(ctx, admin, 9999)
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})
	})

	Describe("Approve", func() {
		It("adds the quantity to stock and records the decision", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())

			approved, err := service.Approve(ctx, admin, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(approved.Status).To(Equal(purchase.StatusApproved))
			Expect(*approved.ApprovedBy).To(Equal(admin.ID))
			Expect(approved.ProcessedAt).NotTo(BeNil())
			Expect(stock()).To(Equal(int64(9)))

			history, err := service.History(ctx, admin, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(2))
			Expect(history[1].Action).To(Equal(purchase.ActionApproved))
			Expect(history[1].Message).To(Equal("Request approved"))
			Expect(history[1].Snapshot.Status).To(Equal(purchase.StatusApproved))
		})

		It("refuses a second decision", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Approve(ctx, admin, req.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Approve(ctx, admin, req.ID)
			code, msg := appStatus(err)
			Expect(code).To(Equal(400))
			Expect(msg).To(Equal("Request is already approved"))

			_, err = service.Reject(ctx, admin, req.ID, purchase.RejectRequestDTO{})
			_, msg = appStatus(err)
			Expect(msg).To(Equal("Request is already approved"))
			Expect(stock()).To(Equal(int64(9)))
		})

		It("returns 404 when the item is gone", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Delete(&itemDatamodel.Item{}, gauze.ID).Error).To(Succeed())

			_, err = service.Approve(ctx, admin, req.ID)
			Expect(err).To(MatchError(internal.ErrItemNotFound))

			current, err := service.Get(ctx, admin, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.Status).To(Equal(purchase.StatusPending))
		})

		It("lets only one of two racing decisions through", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Reject(ctx, req.ID, admin.ID, "no", time.Now())
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Approve(ctx, req.ID, admin.ID, time.Now())
			var stateErr *purchase.StateError
			Expect(err).To(BeAssignableToTypeOf(stateErr))
			Expect(err.Error()).To(Equal("Request is already rejected"))
			Expect(stock()).To(Equal(int64(5)))
		})
	})

	Describe("Reject", func() {
		It("defaults the message and leaves stock alone", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())

			rejected, err := service.Reject(ctx, admin, req.ID, purchase.RejectRequestDTO{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rejected.Status).To(Equal(purchase.StatusRejected))
			Expect(*rejected.RejectedBy).To(Equal(admin.ID))
			Expect(stock()).To(Equal(int64(5)))

			history, err := service.History(ctx, buyer, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history[1].Message).To(Equal("Request rejected"))

			bus.Wait()
			Expect(seen.types()).To(ConsistOf(events.EventTypeRequestCreated, events.EventTypeRequestRejected))
		})

		It("keeps a custom message", func() {
			req, err := service.Create(ctx, buyer, createDTO(idString, "4"))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Reject(ctx, admin, req.ID, purchase.RejectRequestDTO{Message: "over budget"})
			Expect(err).NotTo(HaveOccurred())

			history, err := service.History(ctx, admin, req.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(history[1].Message).To(Equal("over budget"))
		})

		It("returns 404 for an unknown request", func() {
			_, err := service.Reject(ctx, admin, 9999, purchase.RejectRequestDTO{})
			Expect(err).To(MatchError(internal.ErrRequestNotFound))
		})
	})
})

func jsonString(id int64) (string, error) {
	b, err := json.Marshal(id)
	return string(b), err
}
