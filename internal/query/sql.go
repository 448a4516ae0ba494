package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/tourhub/internal/apperr"
)

// SQL is a Spec rendered for PostgreSQL. Where and OrderBy carry their
// leading keyword (or are empty); Args match the $n placeholders in Where.
type SQL struct {
	Where   string
	Args    []interface{}
	OrderBy string
	Limit   int
	Offset  int
}

// Page renders LIMIT/OFFSET with placeholders continuing after Args.
func (q SQL) Page() (string, []interface{}) {
	n := len(q.Args)
	args := make([]interface{}, 0, n+2)
	args = append(args, q.Args...)
	args = append(args, q.Limit, q.Offset)

	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n+1, n+2), args
}

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpGt:  ">",
	OpGte: ">=",
	OpLt:  "<",
	OpLte: "<=",
}

// SQL renders s against schema. Column names only ever come from schema,
// never from the request.
func (s Spec) SQL(schema Schema) (SQL, error) {
	var (
		conds []string
		args  []interface{}
	)

	for _, p := range s.Filters {
		f, ok := schema[p.Field]
		if !ok || f.Kind == KindOpaque {
			return SQL{}, apperr.Validation("invalid_query", "Cannot filter by unknown field: "+p.Field, nil)
		}

		if p.Op == OpIn {
			col := f.Column
			if f.Kind == KindUUID {
				col += "::text"
			}
			args = append(args, typedArray(f.Kind, p.Values))
			conds = append(conds, fmt.Sprintf("%s = ANY($%d)", col, len(args)))
			continue
		}

		op, ok := sqlOps[p.Op]
		if !ok || len(p.Values) == 0 {
			return SQL{}, apperr.Validation("invalid_query", "Unsupported filter on "+p.Field, nil)
		}
		args = append(args, p.Values[0])
		conds = append(conds, fmt.Sprintf("%s %s $%d", f.Column, op, len(args)))
	}

	out := SQL{Args: args, Limit: s.Take(), Offset: s.Skip()}
	if len(conds) > 0 {
		out.Where = " WHERE " + strings.Join(conds, " AND ")
	}

	order := make([]string, 0, len(s.Sort)+1)
	sortedByID := false
	for _, k := range s.Sort {
		f, ok := schema[k.Field]
		if !ok || f.Kind == KindOpaque {
			return SQL{}, apperr.Validation("invalid_query", "Cannot sort by unknown field: "+k.Field, nil)
		}
		dir := "ASC"
		if k.Desc {
			dir = "DESC"
		}
		order = append(order, f.Column+" "+dir)
		if k.Field == "id" {
			sortedByID = true
		}
	}
	// stable ordering for pagination
	if !sortedByID {
		if id, ok := schema["id"]; ok {
			order = append(order, id.Column+" ASC")
		}
	}
	if len(order) > 0 {
		out.OrderBy = " ORDER BY " + strings.Join(order, ", ")
	}

	return out, nil
}

// typedArray gives pgx a concrete slice type to encode as a PostgreSQL array.
func typedArray(kind Kind, values []interface{}) interface{} {
	switch kind {
	case KindNumber:
		out := make([]float64, 0, len(values))
		for _, v := range values {
			out = append(out, v.(float64))
		}
		return out
	case KindInt:
		out := make([]int64, 0, len(values))
		for _, v := range values {
			out = append(out, v.(int64))
		}
		return out
	case KindTime:
		out := make([]time.Time, 0, len(values))
		for _, v := range values {
			out = append(out, v.(time.Time))
		}
		return out
	case KindBool:
		out := make([]bool, 0, len(values))
		for _, v := range values {
			out = append(out, v.(bool))
		}
		return out
	default:
		out := make([]string, 0, len(values))
		for _, v := range values {
			out = append(out, fmt.Sprint(v))
		}
		return out
	}
}
