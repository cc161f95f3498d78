package config

import (
	"fmt"
	"github.com/ilyakaznacheev/cleanenv"
	"log/slog"
	"path/filepath"
	"runtime"
)

type (
	Config struct {
		App        `json:"app"        toml:"app"`
		Blockchain `json:"blockchain" toml:"blockchain"`
		Wallet     `json:"wallet"     toml:"wallet"`
		IPFS       `json:"ipfs"       toml:"ipfs"`
		Metadata   `json:"metadata"   toml:"metadata"`
		HTTP       `json:"http"       toml:"http"`
		DB         `json:"db"         toml:"db"`
		Log        `json:"logger"     toml:"logger"`
		Workers    `json:"workers"    toml:"workers"`
	}

	App struct {
		Name        string `json:"name"        toml:"name"        env:"APP_NAME"     env-default:"nft-marketplace"`
		Environment string `json:"environment" toml:"environment" env:"ENV_NAME"     env-default:"dev"`
		Debug       bool   `json:"debug"       toml:"debug"       env:"DEBUG"        env-default:"false"`
		Currency    string `json:"currency"    toml:"currency"    env:"NFT_CURRENCY" env-default:"ETH"`
	}

	Blockchain struct {
		RPCURL                string `json:"rpc_url"                toml:"rpc_url"                env:"RPC_URL"                env-default:"http://127.0.0.1:8545"`
		ChainID               int64  `json:"chain_id"               toml:"chain_id"               env:"CHAIN_ID"               env-default:"31337"`
		MarketAddress         string `json:"market_address"         toml:"market_address"         env:"MARKET_ADDRESS"`
		RequiredConfirmations uint64 `json:"required_confirmations" toml:"required_confirmations" env:"REQUIRED_CONFIRMATIONS" env-default:"3"`
	}

	// Wallet selects the signing identity. Kind "none" behaves like a browser
	// without a wallet extension.
	Wallet struct {
		Kind           string `json:"kind"            toml:"kind"            env:"WALLET_KIND"            env-default:"hd"`
		Seed           string `json:"seed"            toml:"seed"            env:"WALLET_SEED"`
		SeedPassword   string `json:"seed_password"   toml:"seed_password"   env:"WALLET_SEED_PASSWORD"`
		DerivationPath string `json:"derivation_path" toml:"derivation_path" env:"WALLET_DERIVATION_PATH" env-default:"m/44'/60'/0'/0"`
		Accounts       uint32 `json:"accounts"        toml:"accounts"        env:"WALLET_ACCOUNTS"        env-default:"1"`
		KeystoreDir    string `json:"keystore_dir"    toml:"keystore_dir"    env:"WALLET_KEYSTORE_DIR"`
		Passphrase     string `json:"passphrase"      toml:"passphrase"      env:"WALLET_PASSPHRASE"`
	}

	IPFS struct {
		APIURL        string `json:"api_url"        toml:"api_url"        env:"IPFS_API_URL"        env-default:"https://ipfs.infura.io:5001/api/v0"`
		GatewayURL    string `json:"gateway_url"    toml:"gateway_url"    env:"IPFS_GATEWAY_URL"    env-default:"https://ipfs.infura.io/ipfs"`
		ProjectID     string `json:"project_id"     toml:"project_id"     env:"IPFS_PROJECT_ID"`
		ProjectSecret string `json:"project_secret" toml:"project_secret" env:"IPFS_PROJECT_SECRET"`
		CIDVersion    int    `json:"cid_version"    toml:"cid_version"    env:"IPFS_CID_VERSION"    env-default:"0"`
		Timeout       int    `json:"timeout"        toml:"timeout"        env:"IPFS_TIMEOUT"        env-default:"60"`
	}

	Metadata struct {
		Timeout     int `json:"timeout"     toml:"timeout"     env:"METADATA_TIMEOUT"     env-default:"30"`
		Concurrency int `json:"concurrency" toml:"concurrency" env:"METADATA_CONCURRENCY" env-default:"0"`
	}

	HTTP struct {
		Port           string   `json:"port"            toml:"port"            env:"HTTP_PORT"            env-default:"8080"`
		AllowedOrigins []string `json:"allowed_origins" toml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
	}

	// DB is optional. An empty DatabaseURL disables the transaction journal.
	DB struct {
		DatabaseURL       string `json:"database_url"        toml:"database_url"        env:"DATABASE_URL"`
		MigrationsPath    string `json:"migrations_path"     toml:"migrations_path"     env:"MIGRATIONS_PATH"      env-default:"./migrations"`
		PoolMax           int32  `json:"pool_max"            toml:"pool_max"            env:"PG_POOL_MAX"          env-default:"4"`
		ConnectTimeout    int    `json:"connect_timeout"     toml:"connect_timeout"     env:"PG_POOL_CONN_TIMEOUT" env-default:"5"`
		HealthCheckPeriod int    `json:"health_check_period" toml:"health_check_period" env:"PG_POOL_HEALTHCHECK"  env-default:"1"`
	}

	Log struct {
		Level slog.Level `json:"level" toml:"level" env:"LOG_LEVEL"`
	}

	// Workers intervals are in seconds, retention in hours.
	Workers struct {
		ConfirmationInterval int `json:"confirmation_interval" toml:"confirmation_interval" env:"WORKER_CONFIRMATION_INTERVAL" env-default:"30"`
		PruneInterval        int `json:"prune_interval"        toml:"prune_interval"        env:"WORKER_PRUNE_INTERVAL"        env-default:"3600"`
		JournalRetention     int `json:"journal_retention"     toml:"journal_retention"     env:"WORKER_JOURNAL_RETENTION"     env-default:"720"`
	}
)

func LoadConfig() (*Config, error) {
	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	return LoadConfigFrom(basePath)
}

// LoadConfigFrom reads config.toml (or config.json) from dir and applies
// environment overrides on top.
func LoadConfigFrom(dir string) (*Config, error) {
	cfg := &Config{}

	configTomlPath := filepath.Join(dir, "config.toml")
	err := cleanenv.ReadConfig(configTomlPath, cfg)
	if err != nil {
		configJsonPath := filepath.Join(dir, "config.json")
		err = cleanenv.ReadConfig(configJsonPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err = cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
