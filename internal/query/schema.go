package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
	"github.com/google/uuid"
)

type Kind int

const (
	// KindOpaque fields can be projected but not filtered or sorted.
	KindOpaque Kind = iota
	KindText
	KindNumber
	KindInt
	KindUUID
	KindTime
	KindBool
)

type Field struct {
	Column string
	Kind   Kind
}

// Schema maps the JSON field names clients use to storage columns.
type Schema map[string]Field

// Predicate validates field and op and converts raw values to the field kind.
func (s Schema) Predicate(field string, op Op, raw ...string) (Predicate, error) {
	f, ok := s[field]
	if !ok || f.Kind == KindOpaque {
		return Predicate{}, apperr.Validation("invalid_query", "Cannot filter by unknown field: "+field, nil)
	}
	if len(raw) == 0 {
		return Predicate{}, apperr.Validation("invalid_query", "Missing value for "+field, nil)
	}
	if op != OpEq && op != OpIn && (f.Kind == KindBool || f.Kind == KindUUID) {
		return Predicate{}, apperr.Validation("invalid_query", "Range filters are not supported on "+field, nil)
	}

	values := make([]interface{}, 0, len(raw))
	for _, r := range raw {
		v, err := f.convert(strings.TrimSpace(r))
		if err != nil {
			return Predicate{}, apperr.Validation("invalid_value", "Invalid "+field+": "+r, nil)
		}
		values = append(values, v)
	}

	return Predicate{Field: field, Op: op, Values: values}, nil
}

func (f Field) convert(raw string) (interface{}, error) {
	switch f.Kind {
	case KindNumber:
		return strconv.ParseFloat(raw, 64)
	case KindInt:
		return strconv.ParseInt(raw, 10, 64)
	case KindUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		return id.String(), nil
	case KindTime:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC(), nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case KindBool:
		return strconv.ParseBool(raw)
	default:
		return raw, nil
	}
}
