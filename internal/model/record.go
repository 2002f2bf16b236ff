package model

import (
	"fmt"
	"strings"
	"time"
)

// Record is a single normalized ticket
type Record struct {
	Origin      string    `json:"origin"`                // Grouping key (site/location)
	Identifier  string    `json:"identifier"`            // Ticket number
	Description string    `json:"description,omitempty"` // Free-text short description
	Created     time.Time `json:"created,omitempty"`     // Zero when the source timestamp was absent or invalid
	Resolved    string    `json:"resolved,omitempty"`    // Raw resolution marker, empty when unresolved
	Category    string    `json:"category,omitempty"`
	Subcategory string    `json:"subcategory,omitempty"`
	Priority    string    `json:"priority,omitempty"`
}

// HasCreated reports whether the record carries a usable creation timestamp
func (r Record) HasCreated() bool {
	return !r.Created.IsZero()
}

// IsResolved reports whether the record has a non-empty resolution marker
func (r Record) IsResolved() bool {
	return strings.TrimSpace(r.Resolved) != ""
}

// CreatedDate returns the calendar date of Created in its own location
func (r Record) CreatedDate() time.Time {
	y, m, d := r.Created.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.Created.Location())
}

// ElapsedCategory is a fixed-boundary label for the gap between two records
type ElapsedCategory string

const (
	ElapsedUnderHour    ElapsedCategory = "0-1h"
	ElapsedOneToFour    ElapsedCategory = "1-4h"
	ElapsedFourToEight  ElapsedCategory = "4-8h"
	ElapsedEightToDay   ElapsedCategory = "8-24h"
	ElapsedOneToThree   ElapsedCategory = "1-3d"
	ElapsedThreeToSeven ElapsedCategory = "3-7d"
	ElapsedOverWeek     ElapsedCategory = ">7d"
)

// ElapsedCategories lists every bucket in ascending order
var ElapsedCategories = []ElapsedCategory{
	ElapsedUnderHour,
	ElapsedOneToFour,
	ElapsedFourToEight,
	ElapsedEightToDay,
	ElapsedOneToThree,
	ElapsedThreeToSeven,
	ElapsedOverWeek,
}

// CategorizeElapsed maps a duration onto its bucket. Upper bounds are inclusive.
func CategorizeElapsed(d time.Duration) ElapsedCategory {
	switch {
	case d <= time.Hour:
		return ElapsedUnderHour
	case d <= 4*time.Hour:
		return ElapsedOneToFour
	case d <= 8*time.Hour:
		return ElapsedFourToEight
	case d <= 24*time.Hour:
		return ElapsedEightToDay
	case d <= 72*time.Hour:
		return ElapsedOneToThree
	case d <= 168*time.Hour:
		return ElapsedThreeToSeven
	default:
		return ElapsedOverWeek
	}
}

// FormatDuration renders a duration as H:MM:SS with unbounded hours
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, total/3600, (total%3600)/60, total%60)
}
