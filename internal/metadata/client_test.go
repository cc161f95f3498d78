package metadata

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDecodesAnyContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`{"name":"Art","description":"d","image":"ipfs://x"}`))
	}))
	defer srv.Close()

	md, err := NewClient(slog.Default(), "", time.Second).Fetch(context.Background(), srv.URL+"/meta")
	require.NoError(t, err)
	require.Equal(t, "Art", md.Name)
	require.Equal(t, "d", md.Description)
	require.Equal(t, "ipfs://x", md.Image)
}

func TestFetchErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(slog.Default(), "", time.Second)

	_, err := c.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")

	_, err = c.Fetch(context.Background(), srv.URL+"/garbage")
	require.Error(t, err)
}

func TestFetchResolvesIPFSScheme(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ipfs/QmMeta", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"Art"}`))
	}))
	defer srv.Close()

	c := NewClient(slog.Default(), srv.URL+"/ipfs/", time.Second)
	md, err := c.Fetch(context.Background(), "ipfs://QmMeta")
	require.NoError(t, err)
	require.Equal(t, "Art", md.Name)
}

func TestResolve(t *testing.T) {
	c := NewClient(slog.Default(), "https://gw.test/ipfs", 0)

	require.Equal(t, "https://gw.test/ipfs/QmA", c.Resolve("ipfs://QmA"))
	require.Equal(t, "https://gw.test/ipfs/QmA/1.json", c.Resolve("ipfs://ipfs/QmA/1.json"))
	require.Equal(t, "https://host/x.json", c.Resolve("https://host/x.json"))

	bare := NewClient(slog.Default(), "", 0)
	require.Equal(t, "ipfs://QmA", bare.Resolve("ipfs://QmA"))
}
