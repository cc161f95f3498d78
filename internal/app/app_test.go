package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sand/nft-marketplace/client/config"
)

func TestNewRequiresMarketAddress(t *testing.T) {
	cfg := &config.Config{}
	cfg.Blockchain.RPCURL = "http://127.0.0.1:8545"

	_, err := New(context.Background(), slog.Default(), cfg)
	require.ErrorIs(t, err, ErrMissingMarketAddress)
}

func TestNewLoggerLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Log.Level = slog.LevelWarn

	logger := NewLogger(cfg, io.Discard)
	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	cfg.App.Debug = true
	logger = NewLogger(cfg, io.Discard)
	require.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

// ethclient dials HTTP endpoints lazily, so building the client needs no node.
func TestNewWithoutWallet(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	cfg.Wallet.Kind = "none"
	cfg.DB.DatabaseURL = ""

	a, err := New(context.Background(), slog.Default(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, "ETH", a.Marketplace.Currency())
	a.StartWorkers(context.Background())
}
