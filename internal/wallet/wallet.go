// Package wallet provides the signing identities the marketplace client can
// connect to.
package wallet

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sand/nft-marketplace/client/config"
	"github.com/sand/nft-marketplace/client/internal/core/ports"
)

const (
	KindNone     = "none"
	KindHD       = "hd"
	KindKeystore = "keystore"
)

// New builds the configured provider. It returns a nil provider for kind
// "none", which callers treat as "no wallet installed".
func New(logger *slog.Logger, cfg config.Wallet) (ports.WalletProvider, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", KindNone:
		logger.Warn("No wallet configured")
		return nil, nil
	case KindHD:
		w, err := NewHDWallet(logger, cfg.Seed, cfg.SeedPassword, cfg.DerivationPath, cfg.Accounts)
		if err != nil {
			return nil, err
		}
		return w, nil
	case KindKeystore:
		w, err := NewKeystoreWallet(logger, cfg.KeystoreDir, cfg.Passphrase)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		return nil, fmt.Errorf("unknown wallet kind %q", cfg.Kind)
	}
}
