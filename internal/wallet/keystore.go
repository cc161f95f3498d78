package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
)

var ErrEmptyKeystore = errors.New("keystore has no accounts")

// KeystoreWallet signs with the first account of an encrypted keystore
// directory.
type KeystoreWallet struct {
	logger  *slog.Logger
	ks      *keystore.KeyStore
	account accounts.Account

	mu         sync.RWMutex
	authorized bool
}

func NewKeystoreWallet(logger *slog.Logger, dir, passphrase string) (*KeystoreWallet, error) {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)

	accs := ks.Accounts()
	if len(accs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyKeystore, dir)
	}

	if err := ks.Unlock(accs[0], passphrase); err != nil {
		return nil, fmt.Errorf("failed to unlock %s: %w", accs[0].Address.Hex(), err)
	}

	logger.Debug("Keystore wallet loaded", "account", accs[0].Address.Hex(), "dir", dir)
	return &KeystoreWallet{logger: logger, ks: ks, account: accs[0]}, nil
}

func (w *KeystoreWallet) Accounts(_ context.Context) ([]common.Address, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.authorized {
		return nil, nil
	}
	return []common.Address{w.account.Address}, nil
}

func (w *KeystoreWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	w.authorize()
	w.logger.InfoContext(ctx, "Wallet accounts authorized", "account", w.account.Address.Hex())
	return w.Accounts(ctx)
}

func (w *KeystoreWallet) Signer(ctx context.Context, chainID *big.Int) (*bind.TransactOpts, error) {
	w.authorize()

	opts, err := bind.NewKeyStoreTransactorWithChainID(w.ks, w.account, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}

func (w *KeystoreWallet) authorize() {
	w.mu.Lock()
	w.authorized = true
	w.mu.Unlock()
}
