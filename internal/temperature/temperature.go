// Package temperature classifies wines into serving-temperature categories
// and carries the cooling lead times the scheduler computes from.
package temperature

import "time"

type Category string

const (
	Sparkling       Category = "sparkling"
	LightWhite      Category = "lightWhite"
	StructuredWhite Category = "structuredWhite"
	Rose            Category = "rose"
	LightRed        Category = "lightRed"
	StructuredRed   Category = "structuredRed"
)

// Profile describes how a category is brought to serving temperature.
// LeadTime is how long before serving the bottle enters the cooling
// environment; WarmUpWindow, when non-zero, is how long before serving it
// comes back out so it is not poured too cold.
type Profile struct {
	Serving      string
	NeedsCooling bool
	LeadTime     time.Duration
	WarmUpWindow time.Duration
}

var profiles = map[Category]Profile{
	Sparkling: {
		Serving:      "6-8 °C, well chilled",
		NeedsCooling: true,
		LeadTime:     3 * time.Hour,
	},
	LightWhite: {
		Serving:      "8-10 °C",
		NeedsCooling: true,
		LeadTime:     150 * time.Minute,
	},
	StructuredWhite: {
		Serving:      "10-13 °C",
		NeedsCooling: true,
		LeadTime:     2 * time.Hour,
		WarmUpWindow: 30 * time.Minute,
	},
	Rose: {
		Serving:      "8-10 °C",
		NeedsCooling: true,
		LeadTime:     150 * time.Minute,
	},
	LightRed: {
		Serving:      "13-15 °C, lightly chilled",
		NeedsCooling: true,
		LeadTime:     time.Hour,
		WarmUpWindow: 20 * time.Minute,
	},
	StructuredRed: {
		Serving:      "16-18 °C, ambient",
		NeedsCooling: false,
	},
}

func ProfileFor(c Category) Profile {
	return profiles[c]
}

func Valid(c Category) bool {
	_, ok := profiles[c]
	return ok
}

// Categories returns the closed enumeration in menu order.
func Categories() []Category {
	return []Category{Sparkling, LightWhite, StructuredWhite, Rose, LightRed, StructuredRed}
}
