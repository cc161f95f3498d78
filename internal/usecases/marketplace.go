package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.openly.dev/pointy"
	"golang.org/x/sync/errgroup"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
	"github.com/sand/nft-marketplace/client/internal/session"
	"github.com/sand/nft-marketplace/client/internal/units"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionReverted = errors.New("transaction reverted")
	ErrInvalidTokenID      = errors.New("invalid token id")
)

// MarketplaceService is the client facade the UI layer talks to. Every
// method runs its external calls in order; only the per-item metadata join
// of the fetch methods runs concurrently.
type MarketplaceService struct {
	logger  *slog.Logger
	session *session.Session

	wallet   ports.WalletProvider
	market   ports.MarketContract
	storage  ports.Storage
	metadata ports.MetadataClient

	notifier ports.Notifier
	reloader ports.Reloader
	journal  ports.TransactionJournal

	chainID     *big.Int
	currency    string
	concurrency int
}

type Option func(*MarketplaceService)

// WithJournal records every submitted listing transaction.
func WithJournal(journal ports.TransactionJournal) Option {
	return func(s *MarketplaceService) {
		s.journal = journal
	}
}

// WithMetadataConcurrency caps the concurrent metadata fetches of one
// listing read. Zero means no cap.
func WithMetadataConcurrency(n int) Option {
	return func(s *MarketplaceService) {
		s.concurrency = n
	}
}

func WithCurrency(currency string) Option {
	return func(s *MarketplaceService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithUI sets the notice and reload hooks of the hosting UI.
func WithUI(notifier ports.Notifier, reloader ports.Reloader) Option {
	return func(s *MarketplaceService) {
		if notifier != nil {
			s.notifier = notifier
		}
		if reloader != nil {
			s.reloader = reloader
		}
	}
}

// NewMarketplaceService wires the facade. wallet may be nil, which means no
// wallet is installed.
func NewMarketplaceService(
	logger *slog.Logger,
	sess *session.Session,
	chainID *big.Int,
	wallet ports.WalletProvider,
	market ports.MarketContract,
	storage ports.Storage,
	metadata ports.MetadataClient,
	opts ...Option,
) *MarketplaceService {
	s := &MarketplaceService{
		logger:   logger,
		session:  sess,
		wallet:   wallet,
		market:   market,
		storage:  storage,
		metadata: metadata,
		chainID:  chainID,
		currency: "ETH",
	}
	s.notifier = logUI{logger: logger}
	s.reloader = logUI{logger: logger}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *MarketplaceService) Session() *session.Session {
	return s.session
}

// Currency is the display currency of listing prices.
func (s *MarketplaceService) Currency() string {
	return s.currency
}

// Init restores an already authorized account once per session.
func (s *MarketplaceService) Init(ctx context.Context) {
	s.session.Init(ctx, s.RestoreSession)
}

// Connect asks the wallet for account access, stores the first account and
// reloads the UI. Without a wallet the user gets a blocking notice and
// nothing else happens.
func (s *MarketplaceService) Connect(ctx context.Context) error {
	if s.wallet == nil {
		s.notifier.Alert(ctx, ports.WalletMissingNotice)
		return nil
	}

	accounts, err := s.wallet.RequestAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to request accounts: %w", err)
	}

	var account string
	if len(accounts) > 0 {
		account = accounts[0].Hex()
	}
	s.session.SetAccount(account)

	s.logger.InfoContext(ctx, "Wallet connected", "account", account)
	s.reloader.Reload(ctx)
	return nil
}

// RestoreSession picks up an account authorized earlier without prompting.
// It never fails visibly.
func (s *MarketplaceService) RestoreSession(ctx context.Context) {
	if s.wallet == nil {
		s.logger.WarnContext(ctx, "No wallet provider found")
		return
	}

	accounts, err := s.wallet.Accounts(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read wallet accounts", "error", err)
		return
	}

	if len(accounts) == 0 {
		s.logger.InfoContext(ctx, "No accounts found.")
		return
	}

	s.session.SetAccount(accounts[0].Hex())
	s.logger.InfoContext(ctx, "Wallet session restored", "account", accounts[0].Hex())
}

// UploadAsset pins data and returns its retrieval URL. Failures are logged
// and reported as ok == false.
func (s *MarketplaceService) UploadAsset(ctx context.Context, data []byte) (string, bool) {
	id, err := s.storage.Add(ctx, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error uploading file to ipfs.", "error", err)
		return "", false
	}

	url := s.storage.URL(id)
	s.logger.InfoContext(ctx, "Asset uploaded", "url", url, "size", len(data))
	return url, true
}

// MintAndList pins the token metadata, lists the token and navigates home.
// Incomplete input is ignored; upload and listing failures are logged.
func (s *MarketplaceService) MintAndList(ctx context.Context, form entities.FormInput, assetURL string, nav ports.Navigator) {
	if !form.Complete() || strings.TrimSpace(assetURL) == "" {
		return
	}

	data, err := json.Marshal(entities.TokenMetadata{
		Name:        form.Name,
		Description: form.Description,
		Image:       assetURL,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to encode token metadata", "error", err)
		return
	}

	id, err := s.storage.Add(ctx, data)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error uploading file to ipfs.", "error", err)
		return
	}
	url := s.storage.URL(id)

	if err = s.ListForSale(ctx, url, form.Price, entities.Mint{}); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list token", "error", err, "token_uri", url)
		return
	}

	if nav != nil {
		nav.Push(ctx, ports.HomePath)
	}
}

// ListForSale mints (or relists) a token at price, paying the contract's
// listing fee, and blocks until the transaction is mined. Errors are
// returned to the caller.
func (s *MarketplaceService) ListForSale(ctx context.Context, metadataURL, price string, sale entities.Sale) error {
	if s.wallet == nil {
		return ErrWalletNotFound
	}
	if sale == nil {
		sale = entities.Mint{}
	}

	opts, err := s.wallet.Signer(ctx, s.chainID)
	if err != nil {
		return fmt.Errorf("failed to get signer: %w", err)
	}

	priceWei, err := units.ParseEther(price)
	if err != nil {
		return err
	}

	fee, err := s.market.GetListingPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to read listing price: %w", err)
	}
	opts.Value = fee

	var tx *types.Transaction
	switch v := sale.(type) {
	case entities.Mint:
		tx, err = s.market.CreateToken(opts, metadataURL, priceWei)
	case entities.Resell:
		if v.TokenID < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTokenID, v.TokenID)
		}
		tx, err = s.market.ResellToken(opts, big.NewInt(v.TokenID), priceWei)
	default:
		return fmt.Errorf("unsupported sale %T", sale)
	}
	if err != nil {
		return fmt.Errorf("failed to submit %s transaction: %w", sale.Kind(), err)
	}

	s.logger.InfoContext(ctx, "Listing transaction submitted",
		"tx_hash", tx.Hash().Hex(),
		"kind", sale.Kind(),
		"from", opts.From.Hex(),
		"price_wei", priceWei.String(),
		"listing_fee_wei", fee.String())
	s.journalSubmitted(ctx, tx, opts.From, sale, metadataURL, priceWei, fee)

	receipt, err := s.market.WaitMined(ctx, tx)
	if err != nil {
		return err
	}

	status := entities.TxStatusMined
	if receipt.Status != types.ReceiptStatusSuccessful {
		status = entities.TxStatusFailed
	}
	s.journalMined(ctx, tx, status, receipt)

	if status == entities.TxStatusFailed {
		return fmt.Errorf("%w: %s", ErrTransactionReverted, tx.Hash().Hex())
	}

	s.logger.InfoContext(ctx, "Listing transaction mined",
		"tx_hash", tx.Hash().Hex(),
		"block_number", receipt.BlockNumber,
		"gas_used", receipt.GasUsed)
	return nil
}

// FetchAllListings reads every unsold market item without a signer.
func (s *MarketplaceService) FetchAllListings(ctx context.Context) ([]entities.Listing, error) {
	items, err := s.market.FetchMarketItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.joinMetadata(ctx, items)
}

// FetchScopedListings reads the items the connected account listed or owns.
func (s *MarketplaceService) FetchScopedListings(ctx context.Context, scope entities.ListingScope) ([]entities.Listing, error) {
	if s.wallet == nil {
		return nil, ErrWalletNotFound
	}

	opts, err := s.wallet.Signer(ctx, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to get signer: %w", err)
	}

	var items []entities.MarketItem
	if scope == entities.ScopeListed {
		items, err = s.market.FetchItemsListed(ctx, opts.From)
	} else {
		items, err = s.market.FetchMyNFTs(ctx, opts.From)
	}
	if err != nil {
		return nil, err
	}

	return s.joinMetadata(ctx, items)
}

// Transactions returns the journaled listing transactions of account.
func (s *MarketplaceService) Transactions(ctx context.Context, account string) ([]entities.Transaction, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.FindTransactionsByAccount(ctx, account)
}

// joinMetadata merges every item with its metadata document. Items are
// independent, so they are fetched concurrently; the output keeps the
// contract's order.
func (s *MarketplaceService) joinMetadata(ctx context.Context, items []entities.MarketItem) ([]entities.Listing, error) {
	listings := make([]entities.Listing, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for i, item := range items {
		g.Go(func() error {
			listing, err := s.toListing(gctx, item)
			if err != nil {
				return err
			}
			listings[i] = listing
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return listings, nil
}

func (s *MarketplaceService) toListing(ctx context.Context, item entities.MarketItem) (entities.Listing, error) {
	if item.TokenId == nil || !item.TokenId.IsInt64() {
		return entities.Listing{}, fmt.Errorf("%w: %v", ErrInvalidTokenID, item.TokenId)
	}

	tokenURI, err := s.market.TokenURI(ctx, item.TokenId)
	if err != nil {
		return entities.Listing{}, err
	}

	md, err := s.metadata.Fetch(ctx, tokenURI)
	if err != nil {
		return entities.Listing{}, err
	}

	return entities.Listing{
		TokenID:     item.TokenId.Int64(),
		Seller:      item.Seller.Hex(),
		Owner:       item.Owner.Hex(),
		Price:       units.FormatEther(item.Price),
		Image:       md.Image,
		Name:        md.Name,
		Description: md.Description,
		TokenURI:    tokenURI,
	}, nil
}

func (s *MarketplaceService) journalSubmitted(
	ctx context.Context,
	tx *types.Transaction,
	from common.Address,
	sale entities.Sale,
	tokenURI string,
	price, fee *big.Int,
) {
	if s.journal == nil {
		return
	}

	record := &entities.Transaction{
		ID:            uuid.New(),
		TxHash:        tx.Hash().Hex(),
		Account:       from.Hex(),
		Kind:          sale.Kind(),
		TokenURI:      tokenURI,
		PriceWei:      price.String(),
		ListingFeeWei: fee.String(),
		Status:        entities.TxStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if resell, ok := sale.(entities.Resell); ok {
		record.TokenID = pointy.Int64(resell.TokenID)
	}

	if err := s.journal.InsertTransaction(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "Failed to journal listing transaction", "error", err, "tx_hash", record.TxHash)
	}
}

func (s *MarketplaceService) journalMined(ctx context.Context, tx *types.Transaction, status string, receipt *types.Receipt) {
	if s.journal == nil {
		return
	}

	var block int64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Int64()
	}

	if err := s.journal.MarkMined(ctx, tx.Hash().Hex(), status, block); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update journaled transaction", "error", err, "tx_hash", tx.Hash().Hex())
	}
}

// logUI stands in for a UI that is not attached.
type logUI struct {
	logger *slog.Logger
}

func (u logUI) Alert(ctx context.Context, message string) {
	u.logger.WarnContext(ctx, "Notice", "message", message)
}

func (u logUI) Reload(ctx context.Context) {
	u.logger.DebugContext(ctx, "Reload requested")
}
