package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
)

const defaultPruneInterval = time.Hour

// JournalPruner periodically removes settled journal entries.
type JournalPruner struct {
	logger  *slog.Logger
	journal ports.TransactionJournal

	// Entries older than this are removed
	retention time.Duration

	pruneInterval time.Duration
}

func NewJournalPruner(
	logger *slog.Logger,
	journal ports.TransactionJournal,
	retention time.Duration,
	pruneInterval time.Duration,
) *JournalPruner {
	if pruneInterval <= 0 {
		pruneInterval = defaultPruneInterval
	}

	return &JournalPruner{
		logger:        logger,
		journal:       journal,
		retention:     retention,
		pruneInterval: pruneInterval,
	}
}

// Start prunes once right away and then every interval until ctx is done.
func (jp *JournalPruner) Start(ctx context.Context) {
	jp.logger.Info("Starting journal pruner",
		"retention", jp.retention.String(),
		"prune_interval", jp.pruneInterval.String())

	if err := jp.Prune(ctx); err != nil {
		jp.logger.Error("Initial journal prune failed", "error", err)
	}

	ticker := time.NewTicker(jp.pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			jp.logger.Info("Journal pruner stopped")
			return
		case <-ticker.C:
			if err := jp.Prune(ctx); err != nil {
				jp.logger.Error("Journal prune failed", "error", err)
			}
		}
	}
}

func (jp *JournalPruner) Prune(ctx context.Context) error {
	count, err := jp.journal.RemoveOldTransactions(ctx, jp.retention)
	if err != nil {
		return err
	}

	if count > 0 {
		jp.logger.Info("Removed old journal entries", "count", count, "older_than", jp.retention.String())
	} else {
		jp.logger.Debug("No old journal entries to remove")
	}

	return nil
}
