package klein

import (
	"strconv"
	"strings"
)

// Params holds the named parameters extracted from the matched URL pattern.
// Values are the raw path segments; the typed getters parse on demand.
type Params map[string]string

// String returns the named parameter, or def when absent.
func (p Params) String(name, def string) string {
	if v, ok := p[name]; ok {
		return v
	}
	return def
}

// Int parses the named parameter as an int.
func (p Params) Int(name string) (int, error) {
	n, err := p.Int64(name)
	return int(n), err
}

// Int64 parses the named parameter as an int64.
func (p Params) Int64(name string) (int64, error) {
	return strconv.ParseInt(p[name], 10, 64)
}

// Float64 parses the named parameter as a float64.
func (p Params) Float64(name string) (float64, error) {
	return strconv.ParseFloat(p[name], 64)
}

// Bool parses the named parameter as a bool.
func (p Params) Bool(name string) (bool, error) {
	return strconv.ParseBool(p[name])
}

// Segments splits the named parameter on "/". An empty value yields a
// single empty segment, matching the branch-segment convention.
func (p Params) Segments(name string) []string {
	return strings.Split(p[name], "/")
}

// clone returns a shallow copy, so the branch wrapper can strip its capture
// without mutating the router's var map.
func (p Params) clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
