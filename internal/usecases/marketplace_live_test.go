package usecases_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stretchr/testify/require"

	"github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/app"
	"github.com/sand/nft-marketplace/client/internal/entities"
)

// TestListOnLocalChain lists a token on the node and market from
// config/config.toml (a hardhat node by default) and reads it back.
func TestListOnLocalChain(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live chain test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.DB.DatabaseURL = ""

	ec, err := ethclient.DialContext(ctx, cfg.Blockchain.RPCURL)
	require.NoError(t, err)
	chainID, err := ec.ChainID(ctx)
	ec.Close()
	if err != nil {
		t.Skipf("no node at %s: %v", cfg.Blockchain.RPCURL, err)
	}
	t.Logf("Running against chain %s at %s", chainID, cfg.Blockchain.RPCURL)

	name := fmt.Sprintf("live-%d", time.Now().UnixNano())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"name":"`+name+`","description":"d","image":"ipfs://x"}`)
	}))
	defer server.Close()

	client, err := app.New(ctx, slog.Default(), cfg)
	require.NoError(t, err)
	defer client.Close()

	market := client.Marketplace
	require.NoError(t, market.Connect(ctx))
	require.NotEmpty(t, market.Session().Account())

	tokenURI := server.URL + "/" + name
	require.NoError(t, market.ListForSale(ctx, tokenURI, "0.01", entities.Mint{}))

	listed, err := market.FetchScopedListings(ctx, entities.ScopeListed)
	require.NoError(t, err)

	var found *entities.Listing
	for i := range listed {
		if listed[i].TokenURI == tokenURI {
			found = &listed[i]
		}
	}
	require.NotNil(t, found, "listed token %s not returned", tokenURI)
	require.Equal(t, name, found.Name)
	require.Equal(t, "0.01", found.Price)
	t.Logf("Token %d listed by %s", found.TokenID, found.Seller)
}
