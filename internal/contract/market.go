// Package contract binds the marketplace contract over go-ethereum.
package contract

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/sand/nft-marketplace/client/internal/core/ports"
	"github.com/sand/nft-marketplace/client/internal/entities"
)

var _ ports.MarketContract = (*Market)(nil)

const (
	methodGetListingPrice  = "getListingPrice"
	methodCreateToken      = "createToken"
	methodResellToken      = "resellToken"
	methodFetchMarketItems = "fetchMarketItems"
	methodFetchItemsListed = "fetchItemsListed"
	methodFetchMyNFTs      = "fetchMyNFTs"
	methodTokenURI         = "tokenURI"
)

// Backend is what the binding needs from a chain client. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Market is the marketplace contract bound to one address.
type Market struct {
	logger   *slog.Logger
	address  common.Address
	deployer bind.DeployBackend
	contract *bind.BoundContract
}

func NewMarket(logger *slog.Logger, address common.Address, backend Backend) (*Market, error) {
	return newMarket(logger, address, backend, backend, backend, backend)
}

func newMarket(
	logger *slog.Logger,
	address common.Address,
	caller bind.ContractCaller,
	transactor bind.ContractTransactor,
	filterer bind.ContractFilterer,
	deployer bind.DeployBackend,
) (*Market, error) {
	parsed, err := abi.JSON(strings.NewReader(MarketABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse market ABI: %w", err)
	}

	return &Market{
		logger:   logger,
		address:  address,
		deployer: deployer,
		contract: bind.NewBoundContract(address, parsed, caller, transactor, filterer),
	}, nil
}

func (m *Market) Address() common.Address {
	return m.address
}

// GetListingPrice returns the fee in wei charged for creating or reselling
// a listing.
func (m *Market) GetListingPrice(ctx context.Context) (*big.Int, error) {
	out, err := m.call(ctx, common.Address{}, methodGetListingPrice)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (m *Market) CreateToken(opts *bind.TransactOpts, tokenURI string, price *big.Int) (*types.Transaction, error) {
	tx, err := m.contract.Transact(opts, methodCreateToken, tokenURI, price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodCreateToken, err)
	}
	return tx, nil
}

func (m *Market) ResellToken(opts *bind.TransactOpts, tokenID, price *big.Int) (*types.Transaction, error) {
	tx, err := m.contract.Transact(opts, methodResellToken, tokenID, price)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", methodResellToken, err)
	}
	return tx, nil
}

// WaitMined blocks until tx has a receipt.
func (m *Market) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, m.deployer, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}
	return receipt, nil
}

func (m *Market) FetchMarketItems(ctx context.Context) ([]entities.MarketItem, error) {
	return m.items(ctx, common.Address{}, methodFetchMarketItems)
}

func (m *Market) FetchItemsListed(ctx context.Context, from common.Address) ([]entities.MarketItem, error) {
	return m.items(ctx, from, methodFetchItemsListed)
}

func (m *Market) FetchMyNFTs(ctx context.Context, from common.Address) ([]entities.MarketItem, error) {
	return m.items(ctx, from, methodFetchMyNFTs)
}

func (m *Market) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := m.call(ctx, common.Address{}, methodTokenURI, tokenID)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (m *Market) items(ctx context.Context, from common.Address, method string) ([]entities.MarketItem, error) {
	out, err := m.call(ctx, from, method)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]entities.MarketItem)).(*[]entities.MarketItem), nil
}

func (m *Market) call(ctx context.Context, from common.Address, method string, params ...interface{}) ([]interface{}, error) {
	var out []interface{}

	opts := &bind.CallOpts{Context: ctx, From: from}
	if err := m.contract.Call(opts, &out, method, params...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}

	m.logger.DebugContext(ctx, "Contract call", "method", method, "from", from.Hex())
	return out, nil
}
