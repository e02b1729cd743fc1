package core

import "strings"

// OtherCategory is the catch-all label every missing or blank category is
// normalized to.
const OtherCategory = "Other"

// Category lists are static configuration, not derived from data. Order
// matters: it is the order forms present them in.
var (
	IncomeCategories = []string{
		"Salary",
		"Freelance",
		"Business",
		"Investment",
		"Rental",
		"Gift",
		"Other",
	}

	ExpenseCategories = []string{
		"Food & Dining",
		"Transportation",
		"Shopping",
		"Entertainment",
		"Bills & Utilities",
		"Healthcare",
		"Education",
		"Travel",
		"Housing",
		"Insurance",
		"Other",
	}
)

// CategoriesFor returns the ordered category list for a kind. The returned
// slice is a copy.
func CategoriesFor(k Kind) []string {
	switch k {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

// KnownCategory reports whether label is in the fixed list for the kind.
func KnownCategory(k Kind, label string) bool {
	for _, c := range CategoriesFor(k) {
		if c == label {
			return true
		}
	}
	return false
}

// NormalizeCategory maps any category value to a usable label: blank or
// whitespace-only input becomes OtherCategory, everything else is trimmed
// and kept as-is.
func NormalizeCategory(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return OtherCategory
	}
	return label
}
