package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
)

const defaultConfirmationInterval = 30 * time.Second

// BlockNumberReader is satisfied by *ethclient.Client.
type BlockNumberReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// ConfirmationTracker counts confirmations of mined listing transactions and
// marks them confirmed once the chain is deep enough.
type ConfirmationTracker struct {
	logger  *slog.Logger
	journal ports.TransactionJournal
	chain   BlockNumberReader

	requiredConfirmations uint64
	checkInterval         time.Duration
}

func NewConfirmationTracker(
	logger *slog.Logger,
	journal ports.TransactionJournal,
	chain BlockNumberReader,
	requiredConfirmations uint64,
	checkInterval time.Duration,
) *ConfirmationTracker {
	if checkInterval <= 0 {
		checkInterval = defaultConfirmationInterval
	}

	return &ConfirmationTracker{
		logger:                logger,
		journal:               journal,
		chain:                 chain,
		requiredConfirmations: requiredConfirmations,
		checkInterval:         checkInterval,
	}
}

// Start checks pending confirmations every interval until ctx is done.
func (ct *ConfirmationTracker) Start(ctx context.Context) {
	ct.logger.Info("Starting confirmation tracker",
		"required", ct.requiredConfirmations,
		"check_interval", ct.checkInterval.String())

	ticker := time.NewTicker(ct.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			ct.logger.Info("Confirmation tracker stopped", "reason", ctx.Err().Error())
			return
		case <-ticker.C:
			if err := ct.CheckConfirmations(ctx); err != nil {
				ct.logger.ErrorContext(ctx, "Confirmation check failed", "error", err)
			}
		}
	}
}

// CheckConfirmations runs one pass over the mined transactions.
func (ct *ConfirmationTracker) CheckConfirmations(ctx context.Context) error {
	txs, err := ct.journal.FindMinedTransactions(ctx)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		return nil
	}

	currentBlock, err := ct.chain.BlockNumber(ctx)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if tx.BlockNumber == nil || uint64(*tx.BlockNumber) > currentBlock {
			continue
		}

		confirmations := currentBlock - uint64(*tx.BlockNumber)
		confirmed := confirmations >= ct.requiredConfirmations

		if err = ct.journal.UpdateConfirmations(ctx, tx.TxHash, int64(confirmations), confirmed); err != nil {
			ct.logger.ErrorContext(ctx, "Failed to update confirmations",
				"error", err,
				"tx_hash", tx.TxHash,
				"confirmations", confirmations)
			continue
		}

		if !confirmed {
			ct.logger.DebugContext(ctx, "Waiting for confirmations",
				"tx_hash", tx.TxHash,
				"current", confirmations,
				"required", ct.requiredConfirmations)
		}
	}

	return nil
}
