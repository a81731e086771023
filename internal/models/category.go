package models

import (
	"fmt"
	"strings"
)

// Category is a coarse muscle-group label attached to an exercise.
// The zero value means no category was chosen.
type Category string

const (
	CategoryChest     Category = "Chest"
	CategoryBack      Category = "Back"
	CategoryLegs      Category = "Legs"
	CategoryShoulders Category = "Shoulders"
	CategoryArms      Category = "Arms"
	CategoryCore      Category = "Core"
	CategoryCardio    Category = "Cardio"
	CategoryOther     Category = "Other"
)

var categories = []Category{
	CategoryChest,
	CategoryBack,
	CategoryLegs,
	CategoryShoulders,
	CategoryArms,
	CategoryCore,
	CategoryCardio,
	CategoryOther,
}

// Categories returns the closed set of selectable categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a label to its canonical Category, ignoring case and
// surrounding whitespace. An empty label yields the zero Category.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Label returns the aggregation label: the category itself, or "Other" when absent.
func (c Category) Label() string {
	if c == "" {
		return string(CategoryOther)
	}
	return string(c)
}
