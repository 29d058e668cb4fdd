// Package env reads process settings that are needed before the config
// package is loaded, such as the log format.
package env

import (
	"os"
	"strconv"
	"strings"
)

func lookup(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	raw = strings.TrimSpace(raw)
	return raw, ok && raw != ""
}

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if raw, ok := lookup(key); ok {
		return raw
	}
	return fallback
}

// GetBool parses key with strconv.ParseBool. Malformed values yield fallback.
func GetBool(key string, fallback bool) bool {
	raw, ok := lookup(key)
	if !ok {
		return fallback
	}
	if val, err := strconv.ParseBool(raw); err == nil {
		return val
	}
	return fallback
}
