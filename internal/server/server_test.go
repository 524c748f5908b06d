package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/bodyweight-dash/internal/config"
	"github.com/rewired-gh/bodyweight-dash/internal/models"
	"github.com/rewired-gh/bodyweight-dash/internal/render"
	"github.com/rewired-gh/bodyweight-dash/internal/selection"
	"github.com/rewired-gh/bodyweight-dash/internal/trend"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	ds := models.NewDataset("test-id", "memory", []models.Measurement{
		{Subject: "A", Group: "G1", Date: day(1, 1), Weight: 180},
		{Subject: "A", Group: "G1", Date: day(1, 2), Weight: 178},
		{Subject: "B", Group: "G2", Date: day(2, 1), Weight: 200},
	})
	s, err := New(config.ServerConfig{ListenAddr: "127.0.0.1", Port: 0}, ds, trend.NewBuilder(trend.Options{}), render.NewRenderer(640, 320))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStatusCodes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		url  string
		want int
	}{
		{"index", "/", http.StatusOK},
		{"health", "/healthz", http.StatusOK},
		{"options default mode", "/api/options", http.StatusOK},
		{"options unknown mode", "/api/options?mode=team", http.StatusBadRequest},
		{"chart", "/api/chart?mode=individual&target=A", http.StatusOK},
		{"chart unknown mode", "/api/chart?mode=team&target=A", http.StatusBadRequest},
		{"aggregates", "/api/aggregates?mode=group&target=G1", http.StatusOK},
		{"svg", "/chart.svg?mode=individual&target=All", http.StatusOK},
		{"png", "/chart.png?mode=group&target=G2", http.StatusOK},
		{"single month svg", "/chart.svg?mode=individual&target=A", http.StatusOK},
		{"single day png", "/chart.png?mode=individual&target=B", http.StatusOK},
		{"unknown image format", "/chart.gif?target=All", http.StatusNotFound},
		{"image unknown mode", "/chart.svg?mode=team", http.StatusBadRequest},
		{"unknown path", "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.url)
			if rec.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (body %q)", tt.url, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestOptionsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/options?mode=position")

	var set selection.OptionSet
	if err := json.NewDecoder(rec.Body).Decode(&set); err != nil {
		t.Fatalf("Failed to decode options: %v", err)
	}
	if set.Mode != models.ModeGroup {
		t.Errorf("Expected group mode, got %s", set.Mode)
	}
	if set.Label != "Select Position:" {
		t.Errorf("Unexpected picker label %q", set.Label)
	}
	var values []string
	for _, o := range set.Options {
		values = append(values, o.Value)
	}
	if strings.Join(values, ",") != "G1,G2,All Positions" {
		t.Errorf("Unexpected options %v", values)
	}
	if set.Value != "All Positions" {
		t.Errorf("Expected sentinel default, got %q", set.Value)
	}
}

func TestChartEndpoint(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		url        string
		wantTraces int
		wantTitle  string
	}{
		{"all individuals", "/api/chart?mode=individual&target=All", 4, "Body Weight per Month for All Individuals"},
		{"sentinel label", "/api/chart?mode=individual&target=All+Individuals", 4, "Body Weight per Month for All Individuals"},
		{"single subject", "/api/chart?mode=individual&target=A", 2, "Body Weight per Month for A"},
		{"absent target", "/api/chart?mode=individual&target=Z", 0, "Body Weight per Month for Z"},
		{"unresolved", "/api/chart?mode=group", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.url)
			if rec.Code != http.StatusOK {
				t.Fatalf("Unexpected status %d", rec.Code)
			}
			var chart models.Chart
			if err := json.NewDecoder(rec.Body).Decode(&chart); err != nil {
				t.Fatalf("Failed to decode chart: %v", err)
			}
			if len(chart.Data) != tt.wantTraces {
				t.Errorf("Expected %d traces, got %d", tt.wantTraces, len(chart.Data))
			}
			if chart.Layout.Title != tt.wantTitle {
				t.Errorf("Expected title %q, got %q", tt.wantTitle, chart.Layout.Title)
			}
		})
	}
}

func TestAggregatesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/aggregates?mode=individual&target=All")

	var agg models.Aggregates
	if err := json.NewDecoder(rec.Body).Decode(&agg); err != nil {
		t.Fatalf("Failed to decode aggregates: %v", err)
	}
	if len(agg.Monthly) != 2 {
		t.Fatalf("Expected 2 months, got %d", len(agg.Monthly))
	}
	if agg.Monthly[0].MeanWeight != 179 || agg.Monthly[1].MeanWeight != 200 {
		t.Errorf("Unexpected monthly means: %+v", agg.Monthly)
	}
	if len(agg.Daily) != 3 {
		t.Errorf("Expected 3 daily points, got %d", len(agg.Daily))
	}
}

func TestChartImageHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/chart.png?mode=individual&target=All")
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("Expected PNG body")
	}

	rec = get(t, s, "/chart.svg?mode=individual&target=A")
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Expected image/svg+xml, got %q", ct)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/healthz")

	var health healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health.Status != "ok" || health.DatasetID != "test-id" {
		t.Errorf("Unexpected health response %+v", health)
	}
	if health.Records != 3 || health.Subjects != 2 || health.Groups != 2 {
		t.Errorf("Unexpected counts %+v", health)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/healthz")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request ID")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("Expected incoming request ID to be kept, got %q", got)
	}
}

func TestErrorBody(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/options?mode=team")

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error: %v", err)
	}
	if !strings.Contains(body.Error, "unknown mode") {
		t.Errorf("Unexpected error message %q", body.Error)
	}
}

func TestSubjectNamedAll(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := models.NewDataset("named-all", "memory", []models.Measurement{
		{Subject: "All", Group: "G1", Date: day, Weight: 100},
		{Subject: "B", Group: "G1", Date: day, Weight: 300},
	})
	s, err := New(config.ServerConfig{ListenAddr: "127.0.0.1"}, ds, trend.NewBuilder(trend.Options{}), render.NewRenderer(640, 320))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		name      string
		url       string
		wantMean  float64
		wantCount int
	}{
		{"subject All", "/api/aggregates?mode=individual&target=All", 100, 1},
		{"sentinel", "/api/aggregates?mode=individual&target=All+Individuals", 200, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var agg models.Aggregates
			if err := json.NewDecoder(get(t, s, tt.url).Body).Decode(&agg); err != nil {
				t.Fatalf("Failed to decode aggregates: %v", err)
			}
			if len(agg.Daily) != 1 {
				t.Fatalf("Expected 1 daily point, got %d", len(agg.Daily))
			}
			if agg.Daily[0].MeanWeight != tt.wantMean || agg.Daily[0].Count != tt.wantCount {
				t.Errorf("Daily = %+v, want mean %v count %d", agg.Daily[0], tt.wantMean, tt.wantCount)
			}
		})
	}
}
