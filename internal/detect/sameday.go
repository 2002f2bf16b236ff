package detect

import (
	"sort"
	"time"

	"github.com/ppiankov/dupdetect/internal/model"
)

type dayKey struct {
	origin string
	date   time.Time
}

// SameDay groups dated records by origin and calendar day and reports every
// day with more than one record. Text similarity plays no part.
// Groups are ordered by origin, then date.
func SameDay(records []model.Record) []model.SameDayGroup {
	buckets := make(map[dayKey][]model.Record)
	var keys []dayKey
	for _, r := range records {
		if !r.HasCreated() {
			continue
		}
		k := dayKey{origin: r.Origin, date: r.CreatedDate()}
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var groups []model.SameDayGroup
	for _, k := range keys {
		members := buckets[k]
		if len(members) < 2 {
			continue
		}
		members = timeline(members)

		earliest := members[0].Created
		latest := members[len(members)-1].Created
		groups = append(groups, model.SameDayGroup{
			Origin:      k.origin,
			Date:        k.date,
			Identifiers: identifiers(members),
			Categories:  distribution(members, func(r model.Record) string { return r.Category }),
			Priorities:  distribution(members, func(r model.Record) string { return r.Priority }),
			Earliest:    earliest,
			Latest:      latest,
			Span:        latest.Sub(earliest),
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		return a.Date.Before(b.Date)
	})
	return groups
}

func identifiers(records []model.Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Identifier
	}
	return ids
}

// distribution counts occurrences of a field, ignoring empty values.
// Most frequent first; ties by value.
func distribution(records []model.Record, field func(model.Record) string) []model.Count {
	counts := make(map[string]int)
	for _, r := range records {
		if v := field(r); v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	out := make([]model.Count, 0, len(counts))
	for v, n := range counts {
		out = append(out, model.Count{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
