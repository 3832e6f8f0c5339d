package klein

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// =============================================================================
// Typed Handlers
// =============================================================================

// Typed adapts a handler taking a typed parameter struct instead of the raw
// Params bag. Fields are bound by `param` tags matching the pattern's
// placeholder names:
//
//	type ShowParams struct {
//	    ID int `param:"id"`
//	}
//
//	app.Route("/item/{id:[0-9]+}", klein.Typed(func(req *klein.Request, p ShowParams) (any, error) {
//	    return fmt.Sprintf("item %d", p.ID), nil
//	}), klein.WithEndpoint("item"))
//
// The struct shape is validated when Typed is called, i.e. at registration
// time: P must be a struct and every tagged field must have a bindable type
// (string, integer, float, bool, or []string for branch-style captures).
// Invalid shapes panic immediately rather than failing per request.
//
// At dispatch time a placeholder value that cannot be parsed into its field
// produces a 400 via *HTTPError. Typed alone does not see the pattern, so
// placeholders without a tagged field are ignored and tagged fields without
// a matching placeholder keep their zero value; use RouteTyped to have the
// pattern checked against the struct at registration time.
func Typed[P any](fn func(*Request, P) (any, error)) Handler {
	var zero P
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("klein: Typed parameter type must be a struct, got %v", t))
	}
	fields := taggedFields(t)

	return func(req *Request, params Params) (any, error) {
		p := zero
		v := reflect.ValueOf(&p).Elem()
		for _, f := range fields {
			value, ok := params[f.param]
			if !ok {
				continue
			}
			if err := setField(v.Field(f.index), value); err != nil {
				return nil, &HTTPError{
					Code:    http.StatusBadRequest,
					Message: fmt.Sprintf("invalid value for %q", f.param),
					Err:     err,
				}
			}
		}
		return fn(req, p)
	}
}

// RouteTyped registers a typed handler the way Route registers a Typed one,
// and additionally cross-checks the pattern against P: every placeholder in
// pattern must be covered by a `param`-tagged field, panicking at
// registration time otherwise. This catches renamed or misspelled
// placeholders immediately instead of leaving a field silently zero on
// every request.
//
// It is a free function because Go methods cannot carry type parameters.
func RouteTyped[P any](k *Klein, pattern string, fn func(*Request, P) (any, error), opts ...RouteOption) {
	handler := Typed(fn)

	var zero P
	t := reflect.TypeOf(zero)
	tagged := make(map[string]bool)
	for _, f := range taggedFields(t) {
		tagged[f.param] = true
	}
	for _, name := range templateVars(pattern) {
		if name == restParam {
			continue
		}
		if !tagged[name] {
			panic(fmt.Sprintf("klein: pattern placeholder %q has no param-tagged field on %s", name, t))
		}
	}

	var cfg routeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.endpoint == "" {
		opts = append(opts, WithEndpoint(handlerName(fn)))
	}

	k.Route(pattern, handler, opts...)
}

// templateVars extracts the placeholder names from a mux pattern. Braces
// inside a regexp constraint, e.g. "{id:[0-9]{3}}", do not terminate the
// placeholder.
func templateVars(pattern string) []string {
	var vars []string
	depth := 0
	start := 0
	name := ""
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
			if depth == 1 {
				start = i + 1
				name = ""
			}
		case ':':
			if depth == 1 && name == "" {
				name = pattern[start:i]
			}
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				if name == "" {
					name = pattern[start:i]
				}
				vars = append(vars, name)
			}
		}
	}
	return vars
}

// taggedField records one `param`-tagged struct field.
type taggedField struct {
	index int
	param string
}

// taggedFields collects the bindable fields of t, panicking on fields Typed
// cannot bind.
func taggedFields(t reflect.Type) []taggedField {
	var fields []taggedField
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := field.Tag.Get("param")
		if name == "" {
			continue
		}
		if !field.IsExported() {
			panic(fmt.Sprintf("klein: param field %s.%s must be exported", t.Name(), field.Name))
		}
		if !bindable(field.Type) {
			panic(fmt.Sprintf("klein: param field %s.%s has unsupported type %s", t.Name(), field.Name, field.Type))
		}
		fields = append(fields, taggedField{index: i, param: name})
	}
	return fields
}

// bindable reports whether setField supports t.
func bindable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.String
	default:
		return false
	}
}

// setField sets a field value from a raw path segment.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer: %s", value)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float: %s", value)
		}
		field.SetFloat(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		field.SetBool(b)

	case reflect.Slice:
		// "a/b/c" → ["a", "b", "c"]
		field.Set(reflect.ValueOf(strings.Split(value, "/")).Convert(field.Type()))
	}

	return nil
}
