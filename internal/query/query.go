// Package query compiles HTTP query strings into a filter/sort/projection/
// pagination Spec. It never talks to a data source: the same Spec is rendered
// to SQL by SQL and evaluated in memory by Evaluate.
package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/geocoder89/tourhub/internal/apperr"
)

type Op string

const (
	OpEq  Op = "eq"
	OpIn  Op = "in"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
)

var rangeOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

const (
	keySort   = "sort"
	keyFields = "fields"
	keyPage   = "page"
	keyLimit  = "limit"
)

var operatorKey = regexp.MustCompile(`^([A-Za-z0-9_]+)\[([A-Za-z]+)\]$`)

// Predicate holds values already converted to the field's kind.
type Predicate struct {
	Field  string
	Op     Op
	Values []interface{}
}

type SortKey struct {
	Field string
	Desc  bool
}

// Projection is an inclusion set, or an exclusion set when Exclude is true.
// An empty Projection keeps every field.
type Projection struct {
	Fields  []string
	Exclude bool
}

func (p Projection) Empty() bool {
	return len(p.Fields) == 0
}

type Spec struct {
	Filters    []Predicate
	Sort       []SortKey
	Projection Projection
	Page       int
	Limit      int
	// PageRequested is set when the caller named a page explicitly; only
	// then does an exhausted page count as missing.
	PageRequested bool
}

func (s Spec) Skip() int {
	if s.Page < 1 {
		return 0
	}
	return (s.Page - 1) * s.Limit
}

func (s Spec) Take() int {
	return s.Limit
}

// WithFilter returns a copy of s with p appended to its filters.
func (s Spec) WithFilter(p Predicate) Spec {
	filters := make([]Predicate, 0, len(s.Filters)+1)
	filters = append(filters, s.Filters...)
	s.Filters = append(filters, p)
	return s
}

// CheckPage fails when an explicitly requested page starts at or past total.
func (s Spec) CheckPage(total int) error {
	if s.PageRequested && s.Skip() >= total {
		return apperr.NotFound("page_not_found", "This page does not exist.")
	}
	return nil
}

type Options struct {
	Schema       Schema
	DefaultSort  []SortKey
	DefaultLimit int
	MaxLimit     int
}

const (
	fallbackLimit    = 100
	fallbackMaxLimit = 1000
)

// Parse builds a Spec from query-string values. Reserved keys drive sort,
// projection and paging; every other key filters.
func Parse(values url.Values, opts Options) (Spec, error) {
	spec := Spec{Page: 1, Limit: opts.DefaultLimit}
	if spec.Limit <= 0 {
		spec.Limit = fallbackLimit
	}
	maxLimit := opts.MaxLimit
	if maxLimit <= 0 {
		maxLimit = fallbackMaxLimit
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := nonEmpty(values[key])
		if len(raw) == 0 {
			continue
		}

		switch key {
		case keySort:
			sortKeys, err := parseSort(strings.Join(raw, ","), opts.Schema)
			if err != nil {
				return Spec{}, err
			}
			spec.Sort = sortKeys
		case keyFields:
			p, err := parseProjection(strings.Join(raw, ","), opts.Schema)
			if err != nil {
				return Spec{}, err
			}
			spec.Projection = p
		case keyPage:
			page, err := positiveInt(keyPage, raw[len(raw)-1])
			if err != nil {
				return Spec{}, err
			}
			spec.Page = page
			spec.PageRequested = true
		case keyLimit:
			limit, err := positiveInt(keyLimit, raw[len(raw)-1])
			if err != nil {
				return Spec{}, err
			}
			spec.Limit = min(limit, maxLimit)
		default:
			p, err := parseFilter(key, raw, opts.Schema)
			if err != nil {
				return Spec{}, err
			}
			spec.Filters = append(spec.Filters, p)
		}
	}

	if len(spec.Sort) == 0 {
		spec.Sort = append([]SortKey(nil), opts.DefaultSort...)
	}

	return spec, nil
}

func parseFilter(key string, raw []string, schema Schema) (Predicate, error) {
	field, op := key, OpEq

	if m := operatorKey.FindStringSubmatch(key); m != nil {
		rangeOp, ok := rangeOps[strings.ToLower(m[2])]
		if !ok {
			return Predicate{}, apperr.Validation("invalid_query", "Unsupported operator: "+m[2], nil)
		}
		field, op = m[1], rangeOp
		// a repeated range key keeps the last value
		raw = raw[len(raw)-1:]
	} else if len(raw) > 1 {
		op = OpIn
	}

	return schema.Predicate(field, op, raw...)
}

func parseSort(raw string, schema Schema) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key := SortKey{Field: part}
		if strings.HasPrefix(part, "-") {
			key = SortKey{Field: strings.TrimPrefix(part, "-"), Desc: true}
		}

		if f, ok := schema[key.Field]; !ok || f.Kind == KindOpaque {
			return nil, apperr.Validation("invalid_query", "Cannot sort by unknown field: "+key.Field, nil)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func parseProjection(raw string, schema Schema) (Projection, error) {
	var p Projection
	seenInclude, seenExclude := false, false

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name := part
		if strings.HasPrefix(part, "-") {
			name = strings.TrimPrefix(part, "-")
			seenExclude = true
		} else {
			seenInclude = true
		}

		if _, ok := schema[name]; !ok {
			return Projection{}, apperr.Validation("invalid_query", "Cannot select unknown field: "+name, nil)
		}
		p.Fields = append(p.Fields, name)
	}

	if seenInclude && seenExclude {
		return Projection{}, apperr.Validation("invalid_query", "Cannot mix included and excluded fields.", nil)
	}
	p.Exclude = seenExclude

	return p, nil
}

func positiveInt(key, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, apperr.Validation("invalid_query", key+" must be a positive integer", nil)
	}
	return n, nil
}

func nonEmpty(in []string) []string {
	out := in[:0:0]
	for _, v := range in {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
