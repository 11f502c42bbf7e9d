package models

import (
	"errors"
	"strings"
)

// Category is one of the fixed spending categories.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryShopping      Category = "shopping"
	CategoryBills         Category = "bills"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryOther         Category = "other"
)

// ErrUnknownCategory is returned for values outside the registry.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryInfo holds the display properties of a category.
type CategoryInfo struct {
	ID    Category
	Name  string
	Icon  string
	Style string
}

var categories = []CategoryInfo{
	{CategoryFood, "Food", "🍔", "cat-food"},
	{CategoryTransport, "Transport", "🚗", "cat-transport"},
	{CategoryShopping, "Shopping", "🛍️", "cat-shopping"},
	{CategoryBills, "Bills", "📄", "cat-bills"},
	{CategoryEntertainment, "Entertainment", "🎮", "cat-entertainment"},
	{CategoryHealth, "Health", "💊", "cat-health"},
	{CategoryEducation, "Education", "📚", "cat-education"},
	{CategoryOther, "Other", "📦", "cat-other"},
}

// Categories returns the registry in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a raw value onto the registry.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrUnknownCategory
	}
	return c, nil
}

// Valid reports whether c is a member of the registry.
func (c Category) Valid() bool {
	for _, info := range categories {
		if info.ID == c {
			return true
		}
	}
	return false
}

// Info returns the display properties of c. Unknown values fall back to "other".
func (c Category) Info() CategoryInfo {
	for _, info := range categories {
		if info.ID == c {
			return info
		}
	}
	return categories[len(categories)-1]
}
