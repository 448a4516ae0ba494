package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one rejected input field, named by its JSON path
// ("startLocation.coordinates", "locations[1].day").
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// crossField rules take a sibling field as their parameter.
var crossField = map[string]bool{
	"eqfield":  true,
	"nefield":  true,
	"gtfield":  true,
	"gtefield": true,
	"ltfield":  true,
	"ltefield": true,
}

// Binding explains why dst could not be decoded or validated. Field names
// and cross-field parameters are resolved to the JSON names of dst.
func Binding(err error, dst interface{}) *Error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return Normalize(err)
	}

	root := structType(dst)

	var (
		details   interface{}
		verrs     validator.ValidationErrors
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &verrs):
		details = map[string]interface{}{"fields": describeFields(root, verrs)}
	case errors.As(err, &syntaxErr):
		details = map[string]interface{}{"json": "invalid_json_syntax"}
	case errors.As(err, &typeErr):
		path := jsonPath(root, splitPath(typeErr.Field))
		if path == "" {
			path = typeErr.Field
		}
		details = map[string]interface{}{
			"json":  "invalid_json_type",
			"field": path,
			"fields": []FieldError{{
				Field:   path,
				Rule:    "type",
				Message: "must be of type " + typeErr.Type.String(),
			}},
		}
	default:
		details = map[string]interface{}{"reason": err.Error()}
	}

	return Validation("invalid_request", "Invalid request body", details).WithCause(err)
}

func describeFields(root reflect.Type, verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		// the first segment is the struct's own name
		parts := splitPath(fe.StructNamespace())
		if len(parts) > 1 {
			parts = parts[1:]
		}

		param := fe.Param()
		if crossField[fe.Tag()] && param != "" && len(parts) > 0 {
			sibling := append(append([]string(nil), parts[:len(parts)-1]...), param)
			param = jsonPath(root, sibling)
		}

		out = append(out, FieldError{
			Field:   jsonPath(root, parts),
			Rule:    fe.Tag(),
			Param:   param,
			Message: ruleMessage(fe.Tag(), param, fe.Kind()),
		})
	}
	return out
}

func splitPath(p string) []string {
	p = strings.TrimSpace(p)
	if p == "" {
		return nil
	}
	return strings.Split(p, ".")
}

func structType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	return t
}

// jsonPath walks Go field names ("Locations[1]", "Day") through t and
// returns their JSON names. Segments t does not know keep their Go name.
func jsonPath(t reflect.Type, goPath []string) string {
	out := make([]string, 0, len(goPath))
	for _, seg := range goPath {
		if seg == "" {
			continue
		}
		name, index := seg, ""
		if i := strings.IndexByte(seg, '['); i >= 0 {
			name, index = seg[:i], seg[i:]
		}

		var sf reflect.StructField
		found := false
		if t != nil && t.Kind() == reflect.Struct {
			sf, found = t.FieldByName(name)
		}
		if !found {
			out = append(out, name+index)
			t = nil
			continue
		}

		out = append(out, jsonName(sf)+index)
		t = elemStruct(sf.Type)
	}
	return strings.Join(out, ".")
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}
	return name
}

func elemStruct(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
}

func ruleMessage(rule, param string, kind reflect.Kind) string {
	unit := ""
	switch kind {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + param + unit
	case "max":
		return "must be at most " + param + unit
	case "len":
		return "must be exactly " + param + unit
	case "gt":
		return "must be greater than " + param
	case "gte":
		return "must be at least " + param
	case "lt":
		return "must be less than " + param
	case "lte":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "eqfield":
		return "must match " + param
	case "nefield":
		return "must differ from " + param
	case "gtfield":
		return "must be greater than " + param
	case "gtefield":
		return "must not be less than " + param
	case "ltfield":
		return "must be less than " + param
	case "ltefield":
		return "must not exceed " + param
	}
	if param != "" {
		return fmt.Sprintf("failed %s validation (%s)", rule, param)
	}
	return "failed " + rule + " validation"
}
