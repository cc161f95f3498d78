package storage

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sand/nft-marketplace/client/config"
)

func newIPFSServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, config.IPFS) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return srv, config.IPFS{
		APIURL:     srv.URL + "/api/v0",
		GatewayURL: "https://gateway.test/ipfs/",
		Timeout:    5,
	}
}

func TestAddPinsContent(t *testing.T) {
	payload := []byte(`{"name":"Art","description":"d","image":"ipfs://x"}`)
	want, err := cid.V0Builder{}.Sum(payload)
	require.NoError(t, err)

	_, cfg := newIPFSServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v0/add", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("pin"))
		assert.Equal(t, "0", r.URL.Query().Get("cid-version"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "project", user)
		assert.Equal(t, "secret", pass)

		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		body, _ := io.ReadAll(file)
		assert.Equal(t, payload, body)

		_ = json.NewEncoder(w).Encode(map[string]string{"Name": "file", "Hash": want.String(), "Size": "60"})
	})
	cfg.ProjectID = "project"
	cfg.ProjectSecret = "secret"

	s := NewIPFS(slog.Default(), cfg)
	got, err := s.Add(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, want.String(), got)
	require.Equal(t, "https://gateway.test/ipfs/"+want.String(), s.URL(got))
}

func TestAddRejectsErrorStatus(t *testing.T) {
	_, cfg := newIPFSServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "project id required", http.StatusUnauthorized)
	})

	_, err := NewIPFS(slog.Default(), cfg).Add(context.Background(), []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestAddRejectsInvalidCID(t *testing.T) {
	_, cfg := newIPFSServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Name":"file","Hash":"not-a-cid","Size":"1"}`))
	})

	_, err := NewIPFS(slog.Default(), cfg).Add(context.Background(), []byte("x"))
	require.ErrorIs(t, err, ErrInvalidCID)
}

func TestURL(t *testing.T) {
	s := NewIPFS(slog.Default(), config.IPFS{GatewayURL: "https://ipfs.infura.io/ipfs"})
	require.Equal(t, "https://ipfs.infura.io/ipfs/QmHash", s.URL("QmHash"))
}
