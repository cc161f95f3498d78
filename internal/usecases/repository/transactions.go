package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	tx "github.com/Thiht/transactor/pgx"
	"github.com/jackc/pgx/v5"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/pkg/database"
)

const transactionsTable = "listing_transactions"

var transactionColumns = []string{
	"id", "tx_hash", "account", "kind", "token_uri", "token_id", "price_wei", "listing_fee_wei",
	"status", "block_number", "confirmations", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// TransactionsRepository journals listing transactions in Postgres.
type TransactionsRepository struct {
	logger *slog.Logger

	db         tx.DBGetter
	transactor *tx.Transactor
}

var _ ports.TransactionJournal = (*TransactionsRepository)(nil)

func NewTransactionsRepository(logger *slog.Logger, pg *database.Postgres) *TransactionsRepository {
	return &TransactionsRepository{
		logger:     logger,
		db:         pg.DBGetter,
		transactor: pg.Transactor,
	}
}

// InsertTransaction stores a submitted transaction. A hash that is already
// journaled is left untouched.
func (r *TransactionsRepository) InsertTransaction(ctx context.Context, t *entities.Transaction) error {
	return r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var exists bool

		err := r.db(ctx).QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM "+transactionsTable+" WHERE tx_hash = $1)", t.TxHash).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check if transaction exists: %w", err)
		}

		if exists {
			r.logger.Info("Transaction already recorded", "tx_hash", t.TxHash)
			return nil
		}

		query, args, err := psql.Insert(transactionsTable).
			Columns(transactionColumns...).
			Values(t.ID, t.TxHash, t.Account, t.Kind, t.TokenURI, t.TokenID, t.PriceWei, t.ListingFeeWei,
				t.Status, t.BlockNumber, t.Confirmations, t.CreatedAt, t.UpdatedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert: %w", err)
		}

		if _, err = r.db(ctx).Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}

		r.logger.Info("Transaction recorded", "tx_hash", t.TxHash, "account", t.Account, "kind", t.Kind)
		return nil
	})
}

// MarkMined stores the receipt outcome of a journaled transaction.
func (r *TransactionsRepository) MarkMined(ctx context.Context, txHash, status string, blockNumber int64) error {
	query, args, err := psql.Update(transactionsTable).
		Set("status", status).
		Set("block_number", blockNumber).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"tx_hash": txHash}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	if _, err = r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark transaction mined: %w", err)
	}

	return nil
}

// FindTransactionsByAccount returns the account's transactions, newest first.
func (r *TransactionsRepository) FindTransactionsByAccount(ctx context.Context, account string) ([]entities.Transaction, error) {
	return r.find(ctx, psql.Select(transactionColumns...).
		From(transactionsTable).
		Where(sq.Eq{"account": account}).
		OrderBy("created_at DESC"))
}

// FindMinedTransactions returns the successful transactions still waiting
// for confirmations.
func (r *TransactionsRepository) FindMinedTransactions(ctx context.Context) ([]entities.Transaction, error) {
	return r.find(ctx, psql.Select(transactionColumns...).
		From(transactionsTable).
		Where(sq.Eq{"status": entities.TxStatusMined}).
		OrderBy("block_number"))
}

func (r *TransactionsRepository) UpdateConfirmations(ctx context.Context, txHash string, confirmations int64, confirmed bool) error {
	update := psql.Update(transactionsTable).
		Set("confirmations", confirmations).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"tx_hash": txHash})
	if confirmed {
		update = update.Set("status", entities.TxStatusConfirmed)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	if _, err = r.db(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update confirmations: %w", err)
	}

	if confirmed {
		r.logger.Info("Transaction confirmed", "tx_hash", txHash, "confirmations", confirmations)
	}
	return nil
}

// RemoveOldTransactions deletes settled transactions older than olderThan.
func (r *TransactionsRepository) RemoveOldTransactions(ctx context.Context, olderThan time.Duration) (int64, error) {
	query, args, err := psql.Delete(transactionsTable).
		Where(sq.Eq{"status": []string{entities.TxStatusConfirmed, entities.TxStatusFailed}}).
		Where(sq.Lt{"created_at": time.Now().Add(-olderThan)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to remove old transactions: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *TransactionsRepository) find(ctx context.Context, builder sq.SelectBuilder) ([]entities.Transaction, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	transactions, err := pgx.CollectRows(rows, pgx.RowToStructByName[entities.Transaction])
	if err != nil {
		r.logger.Error("failed to collect transactions rows", "error", err)
		return nil, err
	}

	return transactions, nil
}
