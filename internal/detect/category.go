package detect

import (
	"sort"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
)

type patternKey struct {
	origin      string
	date        time.Time
	category    string
	subcategory string
}

// CategoryPatterns groups records by origin, calendar day, category and
// subcategory. Records without a category or a creation time are left out.
// Groups are ordered newest first: origin, date and size descending.
func CategoryPatterns(records []model.Record) []model.CategoryPatternGroup {
	buckets := make(map[patternKey][]model.Record)
	var keys []patternKey
	for _, r := range records {
		if r.Category == "" || !r.HasCreated() {
			continue
		}
		k := patternKey{
			origin:      r.Origin,
			date:        r.CreatedDate(),
			category:    r.Category,
			subcategory: r.Subcategory,
		}
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var groups []model.CategoryPatternGroup
	for _, k := range keys {
		members := buckets[k]
		if len(members) < 2 {
			continue
		}
		members = timeline(members)
		groups = append(groups, model.CategoryPatternGroup{
			Origin:      k.origin,
			Date:        k.date,
			Category:    k.category,
			Subcategory: k.subcategory,
			Identifiers: identifiers(members),
			Priorities:  distribution(members, func(r model.Record) string { return r.Priority }),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Origin != b.Origin {
			return a.Origin > b.Origin
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return a.Subcategory < b.Subcategory
	})
	return groups
}
