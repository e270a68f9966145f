package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/orders/{orderID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", Handler())

	ts := httptest.NewServer(r)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/orders/abc-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	res.Body.Close()

	got := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/orders/{orderID}", "418"))
	if got < 1 {
		t.Fatalf("expected request counted under route pattern, got %v", got)
	}

	res, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	if !strings.Contains(string(body), "alterations_http_requests_total") {
		t.Fatalf("metrics output missing http counter")
	}
}
