package ports

import "time"

const (
	HomePath              = "/"                                    // Navigation target after a successful mint
	WalletMissingNotice   = "Please install MetaMask to continue." // Blocking notice shown when no wallet is present
	DefaultRequestTimeout = 30 * time.Second                       // Fallback transport timeout
)
