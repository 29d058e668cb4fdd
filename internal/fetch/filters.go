package fetch

import (
	"strings"

	"github.com/angelmondragon/soundmarket/internal/apiclient"
)

// All is the sentinel filter value meaning "apply no constraint".
const All = "all"

// Filter is one named query constraint.
type Filter struct {
	Key   string
	Value string
}

// Filters is an ordered set of query constraints. Declaration order is the
// order keys appear in the query string. Values are immutable; setters return
// a copy.
type Filters []Filter

// NewFilters declares keys in order, each starting at All.
func NewFilters(keys ...string) Filters {
	f := make(Filters, 0, len(keys))
	for _, key := range keys {
		f = append(f, Filter{Key: key, Value: All})
	}
	return f
}

// Set returns a copy with key set to value. Unknown keys are appended.
func (f Filters) Set(key, value string) Filters {
	out := f.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Filter{Key: key, Value: value})
}

// Get returns the value for key, or All when undeclared.
func (f Filters) Get(key string) string {
	for _, filter := range f {
		if filter.Key == key {
			return filter.Value
		}
	}
	return All
}

// Clone copies the filters.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	copy(out, f)
	return out
}

// Equal reports whether both hold the same keys and values in the same order.
func (f Filters) Equal(other Filters) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// Active reports whether the value constrains the query.
func Active(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed != "" && !strings.EqualFold(trimmed, All)
}

// Query renders the constraining filters as ordered query params. Filters
// holding All or an empty value are omitted.
func (f Filters) Query() apiclient.Params {
	var params apiclient.Params
	for _, filter := range f {
		if !Active(filter.Value) {
			continue
		}
		params = params.Add(filter.Key, strings.TrimSpace(filter.Value))
	}
	return params
}
