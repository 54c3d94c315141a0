package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestSearchReturnsOrganicResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, `"X-100" site:digikey.com`, req.Query)

		_, _ = w.Write([]byte(`{"organic":[
			{"title":"X-100 | Digi-Key","link":"https://www.digikey.com/en/products/detail/acme/X-100/123","snippet":"In stock"},
			{"title":"X-100 datasheet","link":"https://files.example/x100.pdf","snippet":"PDF"}
		]}`))
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "secret", Endpoint: srv.URL})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), `"X-100" site:digikey.com`)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "https://www.digikey.com/en/products/detail/acme/X-100/123", results[0].URL)
	require.Equal(t, "In stock", results[0].Snippet)
}

func TestSearchErrorOnBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := New(Config{APIKey: "secret", Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "anything")
	require.ErrorContains(t, err, "429")
}
