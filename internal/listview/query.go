package listview

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/robtrove/TroveCRM/internal/domain"
)

type SortKey string

const (
	SortNone   SortKey = ""
	SortName   SortKey = "name"
	SortAmount SortKey = "amount"
	SortDate   SortKey = "date"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortNone, SortName, SortAmount, SortDate:
		return true
	}
	return false
}

// Range is an inclusive creation-time window; zero bounds are open.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// ParseRange parses the from/to bounds. A date-only upper bound covers the whole day.
func ParseRange(from, to string) (Range, error) {
	var r Range
	if from != "" {
		t, err := domain.ParseDate(from)
		if err != nil {
			return Range{}, domain.ValidationError{Field: "from", Message: "invalid date " + from}
		}
		r.From = t
	}
	if to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			r.To = t.Add(24*time.Hour - time.Nanosecond)
		} else if t, err := time.Parse(time.RFC3339, to); err == nil {
			r.To = t
		} else {
			return Range{}, domain.ValidationError{Field: "to", Message: "invalid date " + to}
		}
	}
	return r, nil
}

// Query holds the client-local list parameters. It is never persisted.
type Query struct {
	Search  string
	Equals  map[string]string
	Tags    []string
	Created Range
	Sort    SortKey
}

var reservedParams = map[string]bool{
	"search": true,
	"tags":   true,
	"from":   true,
	"to":     true,
	"sort":   true,
}

// ParseQuery builds a Query from URL parameters. Any parameter that is not
// reserved must name a categorical filter of the schema.
func ParseQuery(values url.Values, schema domain.Schema) (Query, error) {
	q := Query{
		Search: strings.TrimSpace(values.Get("search")),
		Sort:   SortKey(values.Get("sort")),
	}
	if !q.Sort.Valid() {
		return Query{}, domain.ValidationError{Field: "sort", Message: "unknown sort key " + string(q.Sort)}
	}
	if tags := values.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}
	created, err := ParseRange(values.Get("from"), values.Get("to"))
	if err != nil {
		return Query{}, err
	}
	q.Created = created

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if reservedParams[k] {
			continue
		}
		if !schema.IsFilter(k) {
			return Query{}, domain.ValidationError{Field: k, Message: "not a filter of " + schema.Collection}
		}
		if q.Equals == nil {
			q.Equals = map[string]string{}
		}
		q.Equals[k] = values.Get(k)
	}
	return q, nil
}

// Values renders the query back into URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for k, val := range q.Equals {
		v.Set(k, val)
	}
	if len(q.Tags) > 0 {
		v.Set("tags", strings.Join(q.Tags, ","))
	}
	if !q.Created.From.IsZero() {
		v.Set("from", q.Created.From.Format(time.RFC3339Nano))
	}
	if !q.Created.To.IsZero() {
		v.Set("to", q.Created.To.Format(time.RFC3339Nano))
	}
	if q.Sort != SortNone {
		v.Set("sort", string(q.Sort))
	}
	return v
}
