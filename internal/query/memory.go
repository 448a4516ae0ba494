package query

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Doc is a record seen through its JSON encoding, keyed by JSON field name.
type Doc map[string]interface{}

func ToDoc(v interface{}) (Doc, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var d Doc
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Evaluate applies s to items in memory and returns the requested page and
// the number of items matching the filters.
func Evaluate[T any](items []T, s Spec) ([]T, int, error) {
	type row struct {
		item T
		doc  Doc
	}

	matched := make([]row, 0, len(items))
	for _, it := range items {
		d, err := ToDoc(it)
		if err != nil {
			return nil, 0, err
		}
		if s.Match(d) {
			matched = append(matched, row{item: it, doc: d})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return s.Less(matched[i].doc, matched[j].doc)
	})

	total := len(matched)
	start := min(s.Skip(), total)
	end := min(start+s.Take(), total)

	out := make([]T, 0, end-start)
	for _, r := range matched[start:end] {
		out = append(out, r.item)
	}
	return out, total, nil
}

// Match reports whether d satisfies every filter.
func (s Spec) Match(d Doc) bool {
	for _, p := range s.Filters {
		if !p.match(d[p.Field]) {
			return false
		}
	}
	return true
}

// Less orders docs by the sort keys, then by id.
func (s Spec) Less(a, b Doc) bool {
	for _, k := range s.Sort {
		c := compareJSON(a[k.Field], b[k.Field])
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return compareJSON(a["id"], b["id"]) < 0
}

func (p Predicate) match(got interface{}) bool {
	if p.Op == OpIn {
		for _, want := range p.Values {
			if c, ok := compareTyped(got, want); ok && c == 0 {
				return true
			}
		}
		return false
	}

	if len(p.Values) == 0 {
		return false
	}
	c, ok := compareTyped(got, p.Values[0])
	if !ok {
		return false
	}

	switch p.Op {
	case OpEq:
		return c == 0
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	default:
		return false
	}
}

// compareTyped compares a JSON-decoded value with a converted filter value.
func compareTyped(got, want interface{}) (int, bool) {
	switch w := want.(type) {
	case float64:
		g, ok := got.(float64)
		return compareFloat(g, w), ok
	case int64:
		g, ok := got.(float64)
		return compareFloat(g, float64(w)), ok
	case string:
		g, ok := got.(string)
		return strings.Compare(g, w), ok
	case bool:
		g, ok := got.(bool)
		if !ok {
			return 0, false
		}
		return compareBool(g, w), true
	case time.Time:
		s, ok := got.(string)
		if !ok {
			return 0, false
		}
		g, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, false
		}
		return g.Compare(w), true
	default:
		return 0, false
	}
}

// compareJSON orders two JSON-decoded values; nil sorts first.
func compareJSON(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return compareFloat(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			return compareBool(x, y)
		}
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
