package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampAcceptsZonelessValues(t *testing.T) {
	var payload struct {
		CreatedAt Timestamp `json:"created_at"`
		UpdatedAt Timestamp `json:"updated_at"`
	}
	body := `{"created_at":"2024-03-05T10:11:12.123456","updated_at":null}`
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2024, 3, 5, 10, 11, 12, 123456000, time.UTC)
	if !payload.CreatedAt.Equal(want) {
		t.Fatalf("expected %v got %v", want, payload.CreatedAt.Time)
	}
	if !payload.UpdatedAt.IsZero() {
		t.Fatalf("null should decode to zero time")
	}
	if got := payload.CreatedAt.FormatDate(); got != "5 mars 2024" {
		t.Fatalf("unexpected date %q", got)
	}
}

func TestTimestampRejectsGarbage(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
		t.Fatalf("expected error")
	}
}

func TestErrorBodyMessage(t *testing.T) {
	cases := map[string]string{
		`{"detail":"Inactive user"}`: "Inactive user",
		`{"detail":[{"loc":["body","title"],"msg":"field required","type":"missing"}]}`: "title: field required",
		`{}`: "",
	}
	for raw, want := range cases {
		var body ErrorBody
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if got := body.Message(); got != want {
			t.Fatalf("%s: expected %q got %q", raw, want, got)
		}
	}
}

func TestNewErrorBodyRoundTrip(t *testing.T) {
	raw, err := json.Marshal(NewErrorBody("Musique non trouvée"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var body ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Message() != "Musique non trouvée" {
		t.Fatalf("unexpected message %q", body.Message())
	}
}
