package openfda_test

import (
	"github.com/frahmantamala/inventory-management/internal/openfda"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BuildSearch", func() {
	It("should default to published records when nothing is given", func() {
		Expect(openfda.BuildSearch("", "  ")).To(Equal("record_status:Published"))
	})

	It("should build an exact-phrase disjunction for a term", func() {
		search := openfda.BuildSearch(" catheter ", "")

		Expect(search).To(Equal(`brand_name:"catheter" OR company_name:"catheter" OR catalog_number:"catheter" OR ` +
			`version_or_model_number:"catheter" OR device_description:"catheter" OR product_codes.name:"catheter" OR ` +
			`product_codes.code:"catheter" OR product_codes.openfda.device_name:"catheter"`))
	})

	It("should filter by product code alone without parentheses", func() {
		Expect(openfda.BuildSearch("", "FMF")).To(Equal("product_codes.code:FMF"))
	})

	It("should AND parenthesised groups when both are present", func() {
		search := openfda.BuildSearch("glove", "LZA")

		Expect(search).To(HavePrefix(`(brand_name:"glove" OR `))
		Expect(search).To(HaveSuffix(`product_codes.openfda.device_name:"glove") AND (product_codes.code:LZA)`))
	})

	It("should escape backslashes and double quotes", func() {
		search := openfda.BuildSearch(`5" \ tube`, "")

		Expect(search).To(HavePrefix(`brand_name:"5\" \\ tube"`))
	})
})

var _ = Describe("Query.Normalize", func() {
	DescribeTable("limit and skip bounds",
		func(limit, skip, wantLimit, wantSkip int) {
			q := openfda.Query{Limit: limit, Skip: skip}.Normalize()
			Expect(q.Limit).To(Equal(wantLimit))
			Expect(q.Skip).To(Equal(wantSkip))
		},
		Entry("defaults an unset limit", 0, 0, 25, 0),
		Entry("raises a negative limit to one", -5, 3, 1, 3),
		Entry("caps the limit at one hundred", 500, 0, 100, 0),
		Entry("floors skip at zero", 10, -1, 10, 0),
	)
})
