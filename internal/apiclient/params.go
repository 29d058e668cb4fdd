package apiclient

import (
	"net/url"
	"strings"
)

// Param is one query or form field.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered list of fields. Unlike url.Values it encodes in
// insertion order, so /admin/users?role=ARTISTE&is_active=true&search=bob
// stays exactly as the dashboard built it.
type Params []Param

// Add appends a field.
func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value stored for key.
func (p Params) Get(key string) string {
	for _, param := range p {
		if param.Key == key {
			return param.Value
		}
	}
	return ""
}

// Encode renders the params as a query string without the leading '?'.
func (p Params) Encode() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for i, param := range p {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(param.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(param.Value))
	}
	return b.String()
}

// Values converts to url.Values for form bodies.
func (p Params) Values() url.Values {
	values := make(url.Values, len(p))
	for _, param := range p {
		values.Add(param.Key, param.Value)
	}
	return values
}
