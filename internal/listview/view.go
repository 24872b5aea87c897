package listview

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/robtrove/TroveCRM/internal/domain"
)

// Apply returns the visible subset of records: filtered by every predicate of
// the query, then sorted. The input slice is not modified.
func Apply[T domain.Record](records []T, q Query, schema domain.Schema) []T {
	out := Filter(records, q, schema)
	Sort(out, q.Sort)
	return out
}

func Filter[T domain.Record](records []T, q Query, schema domain.Schema) []T {
	out := make([]T, 0, len(records))
	needle := strings.ToLower(q.Search)
	for _, r := range records {
		if !matchSearch(r, needle, schema.Search) {
			continue
		}
		if !matchEquals(r, q.Equals) {
			continue
		}
		if !matchTags(r, q.Tags) {
			continue
		}
		if !q.Created.Contains(r.CreatedTime()) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchSearch(r domain.Record, needle string, fields []string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(r.Attr(f)), needle) {
			return true
		}
	}
	return false
}

func matchEquals(r domain.Record, equals map[string]string) bool {
	for field, want := range equals {
		if want == "" || want == "all" {
			continue
		}
		if r.Attr(field) != want {
			return false
		}
	}
	return true
}

func matchTags(r domain.Record, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, have := range r.TagSet() {
		for _, want := range tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Sort orders records in place. Ties keep their input order.
func Sort[T domain.Record](records []T, key SortKey) {
	switch key {
	case SortName:
		c := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(records, func(i, j int) bool {
			return c.CompareString(records[i].Label(), records[j].Label()) < 0
		})
	case SortAmount:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Amount() > records[j].Amount()
		})
	case SortDate:
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].SortTime().After(records[j].SortTime())
		})
	}
}

// IDs returns the identifiers of records in order.
func IDs[T domain.Record](records []T) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.RecordID()
	}
	return ids
}
