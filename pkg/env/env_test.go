package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("SOUNDMARKET_TEST_VALUE", "")
	if got := Get("SOUNDMARKET_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("SOUNDMARKET_TEST_VALUE", "set")
	if got := Get("SOUNDMARKET_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestGetBool(t *testing.T) {
	t.Setenv("SOUNDMARKET_TEST_BOOL", "true")
	if !GetBool("SOUNDMARKET_TEST_BOOL", false) {
		t.Fatalf("expected true")
	}
	t.Setenv("SOUNDMARKET_TEST_BOOL", "nope")
	if GetBool("SOUNDMARKET_TEST_BOOL", false) {
		t.Fatalf("malformed value should fall back")
	}
}
