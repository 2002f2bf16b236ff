package detect

import (
	"sort"
	"strings"

	"github.com/ppiankov/dupdetect/internal/model"
)

type textKey struct {
	origin      string
	description string
}

// ExactMatch groups records of one origin whose descriptions are identical
// once surrounding whitespace is trimmed and inner runs of whitespace are
// collapsed. Case is significant. Records without a description are ignored;
// undated records still count. Groups are ordered by size descending, then
// origin and description.
func ExactMatch(records []model.Record) []model.ExactMatchGroup {
	buckets := make(map[textKey][]model.Record)
	var keys []textKey
	for _, r := range records {
		text := canonicalText(r.Description)
		if text == "" {
			continue
		}
		k := textKey{origin: r.Origin, description: text}
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var groups []model.ExactMatchGroup
	for _, k := range keys {
		members := buckets[k]
		if len(members) < 2 {
			continue
		}
		members = datedFirst(members)

		g := model.ExactMatchGroup{
			Origin:      k.origin,
			Description: k.description,
			Identifiers: identifiers(members),
			Categories:  distinct(members, func(r model.Record) string { return r.Category }),
		}
		for _, r := range members {
			if !r.HasCreated() {
				continue
			}
			if g.Earliest.IsZero() || r.Created.Before(g.Earliest) {
				g.Earliest = r.Created
			}
			if r.Created.After(g.Latest) {
				g.Latest = r.Created
			}
		}
		groups = append(groups, g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Size() != b.Size() {
			return a.Size() > b.Size()
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.Description < b.Description
	})
	return groups
}

// canonicalText trims and collapses whitespace
func canonicalText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// datedFirst orders dated records by creation time, followed by undated ones in input order
func datedFirst(records []model.Record) []model.Record {
	out := timeline(records)
	for _, r := range records {
		if !r.HasCreated() {
			out = append(out, r)
		}
	}
	return out
}

// distinct returns the non-empty values of a field in order of first appearance
func distinct(records []model.Record, field func(model.Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
