package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/soundmarket/pkg/logger"
	"github.com/angelmondragon/soundmarket/pkg/metrics"
)

func TestLoggingAndMetricsUseRoutePattern(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: buf})
	reg := prometheus.NewRegistry()

	r := chi.NewRouter()
	r.Use(Logging(logg), Metrics(metrics.NewServerMetrics(reg)))
	r.Get("/musiques/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/musiques/42", nil))

	entry := buf.String()
	for _, want := range []string{`"route":"/musiques/{id}"`, `"path":"/musiques/42"`, `"status":418`} {
		if !strings.Contains(entry, want) {
			t.Fatalf("expected %s in %s", want, entry)
		}
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() != "sandbox_http_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == "/musiques/{id}" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatal("expected request counted under the route pattern")
	}
}

func TestLoggingWarnsOnServerErrors(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("info"), Output: buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/unrouted", nil))

	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), `"route":"/unrouted"`) {
		t.Fatalf("unexpected entry %s", buf.String())
	}
}
