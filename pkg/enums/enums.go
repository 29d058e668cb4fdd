// Package enums holds the closed string sets shared by the API, the sandbox
// database and the dashboards.
package enums

import (
	"fmt"
	"slices"
	"strings"
)

// parseFold matches value against valid ignoring case and surrounding space.
func parseFold[T ~string](kind, value string, valid []T) (T, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range valid {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q", kind, value)
}

func known[T ~string](value T, valid []T) bool {
	return slices.Contains(valid, value)
}
