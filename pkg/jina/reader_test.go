package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadPagePassesTargetAndHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/https://www.example.com/product/X-100", r.URL.Path)
		require.Equal(t, "text", r.Header.Get("X-Return-Format"))
		_, _ = w.Write([]byte("X-100 Widget. In stock."))
	}))
	defer srv.Close()

	reader := New(Config{Endpoint: srv.URL})
	page, err := reader.ReadPage(context.Background(), "https://www.example.com/product/X-100")
	require.NoError(t, err)
	require.Equal(t, "X-100 Widget. In stock.", page.Content)
	require.False(t, page.Truncated)
}

func TestReadPageTruncatesAtCap(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()

	reader := New(Config{Endpoint: srv.URL, ContentCap: 64})
	page, err := reader.ReadPage(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, page.Content, 64)
	require.True(t, page.Truncated)
}

func TestReadPageErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	reader := New(Config{Endpoint: srv.URL})
	_, err := reader.ReadPage(context.Background(), "https://example.com")
	require.ErrorContains(t, err, "502")
}

func TestReadPageRequiresURL(t *testing.T) {
	t.Parallel()

	reader := New(Config{})
	_, err := reader.ReadPage(context.Background(), "  ")
	require.Error(t, err)
}
