package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// syntheticMerchantPrefix marks merchants of synthetic/fraud origin in the
// source dataset. It is stripped before storage and display.
const syntheticMerchantPrefix = "fraud_"

// CleanMerchant strips the synthetic anonymization prefix from a merchant
// name. Names without the prefix are returned unchanged.
func CleanMerchant(merchant string) string {
	return strings.TrimPrefix(merchant, syntheticMerchantPrefix)
}

// DisplayCategory converts a raw category code to its display form:
// "grocery_pos" -> "Grocery Pos".
func DisplayCategory(category string) string {
	// cases.Caser is not safe for concurrent use, so build one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(category, "_", " "))
}
