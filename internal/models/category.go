package models

import (
	"strings"

	"golang.org/x/text/cases"
)

// CategoryOther is the fallback for unknown or missing categories.
const CategoryOther = "Other"

// DefaultCategories is the canonical ordered category list.
var DefaultCategories = []string{
	"Food",
	"Groceries",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Travel",
	"Shopping",
	"Health",
	CategoryOther,
}

// CategoryProvider returns the canonical ordered category list.
type CategoryProvider interface {
	Categories() []string
}

// StaticCategories is a fixed CategoryProvider.
type StaticCategories []string

// Categories returns a copy of the list, always including CategoryOther.
func (s StaticCategories) Categories() []string {
	out := make([]string, 0, len(s)+1)
	hasOther := false
	for _, c := range s {
		if c == CategoryOther {
			hasOther = true
		}
		out = append(out, c)
	}
	if !hasOther {
		out = append(out, CategoryOther)
	}
	return out
}

// ResolveCategory matches raw against categories with Unicode case folding.
// It returns the canonical spelling, or CategoryOther and false when raw is
// not in the list.
func ResolveCategory(categories []string, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryOther, false
	}
	fold := cases.Fold()
	key := fold.String(raw)
	for _, c := range categories {
		if fold.String(c) == key {
			return c, true
		}
	}
	return CategoryOther, false
}
