// Package app wires configuration into a running marketplace client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/contract"
	"github.com/sand/nft-marketplace/client/internal/metadata"
	"github.com/sand/nft-marketplace/client/internal/session"
	"github.com/sand/nft-marketplace/client/internal/storage"
	"github.com/sand/nft-marketplace/client/internal/usecases"
	"github.com/sand/nft-marketplace/client/internal/usecases/repository"
	"github.com/sand/nft-marketplace/client/internal/wallet"
	"github.com/sand/nft-marketplace/client/internal/workers"
	"github.com/sand/nft-marketplace/client/pkg/database"
)

var ErrMissingMarketAddress = errors.New("blockchain.market_address is not set")

type App struct {
	Logger      *slog.Logger
	Config      *config.Config
	Marketplace *usecases.MarketplaceService

	client   *ethclient.Client
	postgres *database.Postgres
	journal  *repository.TransactionsRepository
}

// NewLogger builds a text logger at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.Log.Level,
	}

	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, opts))
}

// New dials the chain, builds the wallet and the storage clients and, when a
// database is configured, the transaction journal. The UI hooks come in as
// facade options.
func New(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts ...usecases.Option) (*App, error) {
	if !common.IsHexAddress(cfg.Blockchain.MarketAddress) {
		return nil, ErrMissingMarketAddress
	}

	a := &App{Logger: logger, Config: cfg}

	client, err := ethclient.DialContext(ctx, cfg.Blockchain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Blockchain.RPCURL, err)
	}
	a.client = client

	market, err := contract.NewMarket(logger, common.HexToAddress(cfg.Blockchain.MarketAddress), client)
	if err != nil {
		a.Close()
		return nil, err
	}

	provider, err := wallet.New(logger, cfg.Wallet)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	opts = append([]usecases.Option{
		usecases.WithCurrency(cfg.App.Currency),
		usecases.WithMetadataConcurrency(cfg.Metadata.Concurrency),
	}, opts...)

	if cfg.DB.DatabaseURL != "" {
		if err = a.openJournal(ctx); err != nil {
			a.Close()
			return nil, err
		}
		opts = append(opts, usecases.WithJournal(a.journal))
	}

	a.Marketplace = usecases.NewMarketplaceService(
		logger,
		session.New(),
		big.NewInt(cfg.Blockchain.ChainID),
		provider,
		market,
		storage.NewIPFS(logger, cfg.IPFS),
		metadata.NewClient(logger, cfg.IPFS.GatewayURL, time.Duration(cfg.Metadata.Timeout)*time.Second),
		opts...,
	)

	logger.Info("Marketplace client ready",
		"rpc_url", cfg.Blockchain.RPCURL,
		"chain_id", cfg.Blockchain.ChainID,
		"market", market.Address().Hex(),
		"wallet", cfg.Wallet.Kind,
		"journal", a.journal != nil)

	return a, nil
}

func (a *App) openJournal(ctx context.Context) error {
	workDir, _ := os.Getwd()
	migrationsPath := database.ResolveMigrationsPath(a.Config.DB.MigrationsPath, workDir)

	a.Logger.Info("Running database migrations", "path", migrationsPath)
	if err := database.RunMigrations(a.Logger, a.Config.DB.DatabaseURL, migrationsPath); err != nil {
		return err
	}

	pg, err := database.New(ctx, a.Config.DB.DatabaseURL,
		database.MaxPoolSize(a.Config.DB.PoolMax),
		database.ConnTimeout(a.Config.DB.ConnectTimeout),
		database.HealthCheckPeriod(a.Config.DB.HealthCheckPeriod),
	)
	if err != nil {
		return fmt.Errorf("postgres connection failed: %w", err)
	}

	a.postgres = pg
	a.journal = repository.NewTransactionsRepository(a.Logger, pg)
	return nil
}

// StartWorkers runs the journal workers until ctx is done. Without a journal
// there is nothing to track.
func (a *App) StartWorkers(ctx context.Context) {
	if a.journal == nil {
		a.Logger.Info("Transaction journal disabled, workers not started")
		return
	}

	tracker := workers.NewConfirmationTracker(
		a.Logger,
		a.journal,
		a.client,
		a.Config.Blockchain.RequiredConfirmations,
		time.Duration(a.Config.Workers.ConfirmationInterval)*time.Second,
	)

	pruner := workers.NewJournalPruner(
		a.Logger,
		a.journal,
		time.Duration(a.Config.Workers.JournalRetention)*time.Hour,
		time.Duration(a.Config.Workers.PruneInterval)*time.Second,
	)

	go func() {
		a.Logger.Info("Starting confirmation tracker worker")
		tracker.Start(ctx)
	}()

	go func() {
		a.Logger.Info("Starting journal pruner worker")
		pruner.Start(ctx)
	}()

	a.Logger.Info("All workers initialized and started")
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.client != nil {
		a.client.Close()
	}
}
