package notifications

import (
	"bytes"
	"context"
	"testing"

	"github.com/angelmondragon/soundmarket/pkg/logger"
)

func TestConsolePrintsMarkedLine(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf, logger.Nop())

	Success(context.Background(), console, "Succès", "Musique publiée")
	Error(context.Background(), console, "Champs manquants", "")

	want := "[ok] Succès: Musique publiée\n[erreur] Champs manquants\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	if _, ok := rec.Last(); ok {
		t.Fatalf("empty recorder should have no last notification")
	}
	Info(context.Background(), rec, "Info", "a")
	Error(context.Background(), rec, "Erreur", "b")

	last, ok := rec.Last()
	if !ok || last.Level != LevelError || last.Message != "b" {
		t.Fatalf("unexpected last notification %+v", last)
	}
	if len(rec.All()) != 2 {
		t.Fatalf("expected two notifications")
	}
	rec.Reset()
	if len(rec.All()) != 0 {
		t.Fatalf("expected reset recorder to be empty")
	}
}

func TestNilNotifierIsIgnored(t *testing.T) {
	Success(context.Background(), nil, "t", "m")
}
