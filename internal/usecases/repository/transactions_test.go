package repository

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.openly.dev/pointy"

	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/pkg/database"
)

// newRepository needs a disposable database in TEST_DATABASE_URL.
func newRepository(t *testing.T) *TransactionsRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	logger := slog.Default()
	require.NoError(t, database.RunMigrations(logger, databaseURL, filepath.Join("..", "..", "..", "migrations")))

	pg, err := database.New(context.Background(), databaseURL)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	_, err = pg.Pool.Exec(context.Background(), "TRUNCATE "+transactionsTable)
	require.NoError(t, err)

	return NewTransactionsRepository(logger, pg)
}

func newTransaction(account, hash string) *entities.Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entities.Transaction{
		ID:            uuid.New(),
		TxHash:        hash,
		Account:       account,
		Kind:          "mint",
		TokenURI:      "https://ipfs.infura.io/ipfs/QmMeta",
		PriceWei:      "500000000000000000",
		ListingFeeWei: "25000000000000000",
		Status:        entities.TxStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestTransactionsLifecycle(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()

	const account = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	first := newTransaction(account, "0x01")
	second := newTransaction(account, "0x02")
	second.Kind = "resell"
	second.TokenID = pointy.Int64(7)
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	require.NoError(t, repo.InsertTransaction(ctx, first))
	require.NoError(t, repo.InsertTransaction(ctx, second))
	require.NoError(t, repo.InsertTransaction(ctx, first))

	txs, err := repo.FindTransactionsByAccount(ctx, account)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, "0x02", txs[0].TxHash)
	require.Equal(t, int64(7), *txs[0].TokenID)
	require.Nil(t, txs[1].TokenID)

	require.NoError(t, repo.MarkMined(ctx, "0x01", entities.TxStatusMined, 10))
	require.NoError(t, repo.MarkMined(ctx, "0x02", entities.TxStatusFailed, 11))

	mined, err := repo.FindMinedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, mined, 1)
	require.Equal(t, int64(10), *mined[0].BlockNumber)

	require.NoError(t, repo.UpdateConfirmations(ctx, "0x01", 3, true))

	mined, err = repo.FindMinedTransactions(ctx)
	require.NoError(t, err)
	require.Empty(t, mined)

	removed, err := repo.RemoveOldTransactions(ctx, -time.Minute)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
}
