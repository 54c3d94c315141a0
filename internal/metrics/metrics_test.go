package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSanitizeSite(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeSite(tc.input); got != tc.expected {
				t.Errorf("SanitizeSite(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	generationRequestsTotal = nil
	pageFetchesTotal = nil
	auditResultsTotal = nil
	httpRequestsTotal = nil
	httpRequestDurationSeconds = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if generationRequestsTotal == nil || pageFetchesTotal == nil ||
		auditResultsTotal == nil || httpRequestsTotal == nil ||
		httpRequestDurationSeconds == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	ObserveGeneration("audit", "ok")
	if val := testutil.ToFloat64(generationRequestsTotal); val != 1 {
		t.Errorf("Expected generationRequestsTotal to be 1, got %f", val)
	}

	ObserveFetch("blocked")
	if val := testutil.ToFloat64(pageFetchesTotal); val != 1 {
		t.Errorf("Expected pageFetchesTotal to be 1, got %f", val)
	}
}

// Fuzz test for SanitizeSite.
func FuzzSanitizeSite(f *testing.F) {
	testcases := []string{"http://example.com", "https://google.com", "example.com:443"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, input string) {
		// Must not panic and must return a non-empty string.
		if got := SanitizeSite(input); got == "" {
			t.Errorf("SanitizeSite(%q) returned empty string", input)
		}
	})
}
