package openfda

import (
	"fmt"
	"strings"
)

// PublishedSearch selects every published record.
const PublishedSearch = "record_status:Published"

var termFields = []string{
	"brand_name",
	"company_name",
	"catalog_number",
	"version_or_model_number",
	"device_description",
	"product_codes.name",
	"product_codes.code",
	"product_codes.openfda.device_name",
}

func escapeTerm(term string) string {
	term = strings.TrimSpace(term)
	term = strings.ReplaceAll(term, `\`, `\\`)
	return strings.ReplaceAll(term, `"`, `\"`)
}

// BuildSearch turns a free-text term and a product code into an openFDA
// search expression. With neither it selects published records.
func BuildSearch(term, productCode string) string {
	var parts []string

	if safe := escapeTerm(term); safe != "" {
		clauses := make([]string, len(termFields))
		for i, f := range termFields {
			clauses[i] = fmt.Sprintf(`%s:"%s"`, f, safe)
		}
		parts = append(parts, strings.Join(clauses, " OR "))
	}

	if code := strings.TrimSpace(productCode); code != "" {
		parts = append(parts, "product_codes.code:"+code)
	}

	switch len(parts) {
	case 0:
		return PublishedSearch
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, ") AND (") + ")"
	}
}
