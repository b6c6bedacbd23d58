package item_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/frahmantamala/inventory-management/internal"
	itemDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/item"
	"github.com/frahmantamala/inventory-management/internal/item"
	itemPostgres "github.com/frahmantamala/inventory-management/internal/item/postgres"
	"github.com/frahmantamala/inventory-management/internal/openfda"
	"github.com/frahmantamala/inventory-management/internal/testutil"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func int64Ptr(v int64) *int64 { return &v }

func record(key, name string) openfda.ItemRecord {
	return openfda.ItemRecord{
		OpenFDARecordKey: &key,
		Name:             name,
		Category:         "Cardiovascular",
		Manufacturer:     "Acme",
		Unit:             openfda.DefaultUnit,
		ReorderLevel:     openfda.DefaultReorderLevel,
		Source:           openfda.SourceName,
		LastSyncedAt:     time.Now(),
	}
}

var _ = Describe("Item Service", func() {
	var (
		db      *gorm.DB
		service *item.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLite()
		Expect(err).NotTo(HaveOccurred())

		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = item.NewService(itemPostgres.NewItemRepository(db), slogger)
		ctx = context.Background()
	})

	AfterEach(func() {
		testutil.Close(db)
	})

	Describe("Create", func() {
		It("applies catalog defaults", func() {
			created, err := service.Create(ctx, item.CreateItemDTO{Name: " Gauze "})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Name).To(Equal("Gauze"))
			Expect(created.Category).To(Equal("General"))
			Expect(created.Manufacturer).To(Equal("—"))
			Expect(created.Unit).To(Equal("pcs"))
			Expect(created.Qty).To(BeZero())
			Expect(created.ReorderLevel).To(Equal(int64(10)))
			Expect(created.Source).To(Equal("manual"))
			Expect(created.OpenFDARecordKey).To(BeNil())
		})

		It("keeps explicit zero values", func() {
			created, err := service.Create(ctx, item.CreateItemDTO{Name: "Tape", Qty: int64Ptr(5), ReorderLevel: int64Ptr(0)})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Qty).To(Equal(int64(5)))
			Expect(created.ReorderLevel).To(BeZero())
		})

		DescribeTable("validation",
			func(dto item.CreateItemDTO, message string) {
				_, err := service.Create(ctx, dto)
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(400))
				Expect(appErr.Message).To(Equal(message))
			},
			Entry("missing name", item.CreateItemDTO{}, "name is required"),
			Entry("negative qty", item.CreateItemDTO{Name: "x", Qty: int64Ptr(-1)}, "qty must be at least 0"),
			Entry("negative reorder level", item.CreateItemDTO{Name: "x", ReorderLevel: int64Ptr(-1)}, "reorder_level must be at least 0"),
		)
	})

	It("lists newest first", func() {
		_, err := service.Create(ctx, item.CreateItemDTO{Name: "first"})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Create(ctx, item.CreateItemDTO{Name: "second"})
		Expect(err).NotTo(HaveOccurred())

		items, err := service.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(2))
		Expect(items[0].Name).To(Equal("second"))
	})

	It("returns the shared not-found error for unknown ids", func() {
		_, err := service.GetByID(ctx, 404)
		Expect(err).To(MatchError(internal.ErrItemNotFound))
	})

	Describe("PurgeNonFDA", func() {
		It("removes manual items and keyless rows only", func() {
			_, err := service.Create(ctx, item.CreateItemDTO{Name: "manual"})
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Create(&itemDatamodel.Item{Name: "keyless", Source: itemDatamodel.SourceOpenFDA, Category: "c", Manufacturer: "m", Unit: "u"}).Error).To(Succeed())
			_, err = service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "imported")})
			Expect(err).NotTo(HaveOccurred())

			n, err := service.PurgeNonFDA(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))

			items, err := service.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(items).To(HaveLen(1))
			Expect(items[0].Name).To(Equal("imported"))
		})
	})

	Describe("UpsertFromOpenFDA", func() {
		It("inserts new keys and reports them as upserted", func() {
			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "a"), record("k2", "b")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(item.UpsertResult{Upserted: 2}))

			n, err := service.CountOpenFDA(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(2)))
		})

		It("refreshes catalog fields but keeps stock levels", func() {
			_, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "old name")})
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Model(&itemDatamodel.Item{}).Where("openfda_record_key = ?", "k1").
				Updates(map[string]interface{}{"qty": 42, "reorder_level": 3}).Error).To(Succeed())

			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "new name"), record("k2", "other")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(item.UpsertResult{Upserted: 1, Matched: 1, Modified: 1}))

			var row itemDatamodel.Item
			Expect(db.Where("openfda_record_key = ?", "k1").First(&row).Error).To(Succeed())
			Expect(row.Name).To(Equal("new name"))
			Expect(row.Qty).To(Equal(int64(42)))
			Expect(row.ReorderLevel).To(Equal(int64(3)))
		})

		It("counts an unchanged record as matched but not modified", func() {
			_, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "same")})
			Expect(err).NotTo(HaveOccurred())

			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "same")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(item.UpsertResult{Matched: 1}))
		})

		It("collapses duplicate keys within one call", func() {
			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "first"), record("k1", "last")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Upserted).To(Equal(1))

			var row itemDatamodel.Item
			Expect(db.Where("openfda_record_key = ?", "k1").First(&row).Error).To(Succeed())
			Expect(row.Name).To(Equal("last"))
		})

		It("keeps writing the rest when one row is rejected", func() {
			bad := record("bad", "broken")
			bad.Qty = -5

			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{record("k1", "a"), bad, record("k2", "b")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Failed).To(Equal(1))
			Expect(res.Upserted).To(Equal(2))
		})

		It("skips records without a key or name", func() {
			noName := record("k3", "")
			res, err := service.UpsertFromOpenFDA(ctx, []openfda.ItemRecord{noName, {Name: "no key"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(res).To(Equal(item.UpsertResult{}))
		})
	})
})
