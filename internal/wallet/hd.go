package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidMnemonic       = errors.New("invalid mnemonic")
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
)

// HDWallet derives accounts from a BIP-39 mnemonic along a BIP-44 path.
// Accounts stay hidden until RequestAccounts or Signer authorizes them.
type HDWallet struct {
	logger *slog.Logger

	keys      []*ecdsa.PrivateKey
	addresses []common.Address

	mu         sync.RWMutex
	authorized bool
}

// NewHDWallet derives count accounts below basePath, e.g. "m/44'/60'/0'/0".
func NewHDWallet(logger *slog.Logger, mnemonic, password, basePath string, count uint32) (*HDWallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	if count == 0 {
		count = 1
	}

	path, err := parseDerivationPath(basePath)
	if err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, password)
	masterKey, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	parent := masterKey
	for _, index := range path {
		parent, err = parent.NewChildKey(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child key %d: %w", index, err)
		}
	}

	w := &HDWallet{logger: logger}
	for i := uint32(0); i < count; i++ {
		childKey, err := parent.NewChildKey(i)
		if err != nil {
			return nil, fmt.Errorf("failed to derive account %d: %w", i, err)
		}

		privKey, err := crypto.ToECDSA(common.LeftPadBytes(childKey.Key, 32))
		if err != nil {
			return nil, fmt.Errorf("failed to convert account %d key: %w", i, err)
		}

		w.keys = append(w.keys, privKey)
		w.addresses = append(w.addresses, crypto.PubkeyToAddress(privKey.PublicKey))
	}

	logger.Debug("HD wallet loaded", "accounts", len(w.addresses), "path", basePath)
	return w, nil
}

func (w *HDWallet) Accounts(_ context.Context) ([]common.Address, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.authorized {
		return nil, nil
	}
	return append([]common.Address(nil), w.addresses...), nil
}

func (w *HDWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w.authorize()
	w.logger.InfoContext(ctx, "Wallet accounts authorized", "account", w.addresses[0].Hex())
	return w.Accounts(ctx)
}

func (w *HDWallet) Signer(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	w.authorize()

	opts, err := bind.NewKeyedTransactorWithChainID(w.keys[0], chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (w *HDWallet) authorize() {
	w.mu.Lock()
	w.authorized = true
	w.mu.Unlock()
}

// parseDerivationPath turns "m/44'/60'/0'/0" into bip32 child indexes.
func parseDerivationPath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "m" {
		return nil, nil
	}
	if !strings.HasPrefix(path, "m/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, path)
	}

	var indexes []uint32
	for _, part := range strings.Split(strings.TrimPrefix(path, "m/"), "/") {
		hardened := strings.HasSuffix(part, "'")
		part = strings.TrimSuffix(part, "'")

		n, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, path)
		}

		index := uint32(n)
		if hardened {
			index += bip32.FirstHardenedChild
		}
		indexes = append(indexes, index)
	}

	return indexes, nil
}
