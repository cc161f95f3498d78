package ports

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sand/nft-marketplace/client/internal/entities"
)

// WalletProvider is the injected wallet capability.
type WalletProvider interface {
	// Accounts returns already authorized accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks for access and returns the authorized accounts.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Signer returns transact options for the primary account.
	Signer(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error)
}

// MarketContract is the read/write surface of the deployed marketplace.
type MarketContract interface {
	GetListingPrice(ctx context.Context) (*big.Int, error)
	CreateToken(opts *bind.TransactOpts, tokenURI string, price *big.Int) (*types.Transaction, error)
	ResellToken(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error)
	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	FetchMarketItems(ctx context.Context) ([]entities.MarketItem, error)
	FetchItemsListed(ctx context.Context, from common.Address) ([]entities.MarketItem, error)
	FetchMyNFTs(ctx context.Context, from common.Address) ([]entities.MarketItem, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
}

// Storage pins bytes on content-addressed storage.
type Storage interface {
	// Add stores data and returns its content identifier.
	Add(ctx context.Context, data []byte) (string, error)
	// URL builds the retrieval URL for an identifier.
	URL(identifier string) string
}

// MetadataClient loads the JSON document behind a token URI.
type MetadataClient interface {
	Fetch(ctx context.Context, uri string) (*entities.TokenMetadata, error)
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Alert(ctx context.Context, message string)
}

// Reloader re-initializes connection dependent UI state.
type Reloader interface {
	Reload(ctx context.Context)
}

// Navigator moves the UI to another view.
type Navigator interface {
	Push(ctx context.Context, path string)
}

// TransactionJournal records listing transactions submitted by the client.
type TransactionJournal interface {
	InsertTransaction(ctx context.Context, tx *entities.Transaction) error
	MarkMined(ctx context.Context, txHash string, status string, blockNumber int64) error
	FindTransactionsByAccount(ctx context.Context, account string) ([]entities.Transaction, error)
	FindMinedTransactions(ctx context.Context) ([]entities.Transaction, error)
	UpdateConfirmations(ctx context.Context, txHash string, confirmations int64, confirmed bool) error
	RemoveOldTransactions(ctx context.Context, olderThan time.Duration) (int64, error)
}
