package wallet

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/tyler-smith/go-bip32"

	"github.com/sand/nft-marketplace/client/config"
)

// Well-known development mnemonic used by local EVM nodes.
const devMnemonic = "test test test test test test test test test test test junk"

var (
	devAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	devAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func TestHDWalletDerivesKnownAccounts(t *testing.T) {
	ctx := context.Background()

	w, err := NewHDWallet(slog.Default(), devMnemonic, "", "m/44'/60'/0'/0", 2)
	require.NoError(t, err)

	accounts, err := w.Accounts(ctx)
	require.NoError(t, err)
	require.Empty(t, accounts, "accounts must stay hidden before authorization")

	accounts, err = w.RequestAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, []common.Address{devAccount0, devAccount1}, accounts)

	accounts, err = w.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
}

func TestHDWalletSigner(t *testing.T) {
	w, err := NewHDWallet(slog.Default(), devMnemonic, "", "m/44'/60'/0'/0", 1)
	require.NoError(t, err)

	opts, err := w.Signer(context.Background(), big.NewInt(31337))
	require.NoError(t, err)
	require.Equal(t, devAccount0, opts.From)
	require.NotNil(t, opts.Signer)

	accounts, err := w.Accounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{devAccount0}, accounts)
}

func TestHDWalletInvalidInput(t *testing.T) {
	_, err := NewHDWallet(slog.Default(), "not a mnemonic", "", "m/44'/60'/0'/0", 1)
	require.ErrorIs(t, err, ErrInvalidMnemonic)

	_, err = NewHDWallet(slog.Default(), devMnemonic, "", "44/60", 1)
	require.ErrorIs(t, err, ErrInvalidDerivationPath)
}

func TestParseDerivationPath(t *testing.T) {
	got, err := parseDerivationPath("m/44'/60'/0'/0")
	require.NoError(t, err)
	require.Equal(t, []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild,
		0,
	}, got)

	got, err = parseDerivationPath("m")
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = parseDerivationPath("m/x'")
	require.ErrorIs(t, err, ErrInvalidDerivationPath)
}

func TestKeystoreWallet(t *testing.T) {
	dir := t.TempDir()
	ks := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	acc, err := ks.NewAccount("secret")
	require.NoError(t, err)

	w, err := NewKeystoreWallet(slog.Default(), dir, "secret")
	require.NoError(t, err)

	accounts, err := w.RequestAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []common.Address{acc.Address}, accounts)

	opts, err := w.Signer(context.Background(), big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, acc.Address, opts.From)

	_, err = NewKeystoreWallet(slog.Default(), dir, "wrong")
	require.Error(t, err)

	_, err = NewKeystoreWallet(slog.Default(), t.TempDir(), "secret")
	require.ErrorIs(t, err, ErrEmptyKeystore)
}

func TestNew(t *testing.T) {
	p, err := New(slog.Default(), config.Wallet{Kind: KindNone})
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = New(slog.Default(), config.Wallet{Kind: KindHD, Seed: devMnemonic, DerivationPath: "m/44'/60'/0'/0", Accounts: 1})
	require.NoError(t, err)
	require.IsType(t, &HDWallet{}, p)

	_, err = New(slog.Default(), config.Wallet{Kind: "ledger"})
	require.Error(t, err)
}
