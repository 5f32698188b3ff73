package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Port                   string
	SolanaRPCURL           string
	SponsorPrivateKey      string
	DatabaseURL            string
	FeePercentageBps       uint64
	FeeFixedBufferLamports uint64
	RelayAPIURL            string
	DebridgeAPIURL         string
	DebridgeStatsAPIURL    string
	PriceAPIURL            string
	USDCMint               string
	RequestTimeout         time.Duration
}

var globalConfig *Config

// Load reads configuration from environment variables and an optional config file.
// The sponsor private key and database URL have no defaults and must be set.
func Load() (*Config, error) {
	viper.SetConfigName(".swapd")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("port", "8080")
	viper.SetDefault("solana_rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("fee_percentage_bps", 50)
	viper.SetDefault("fee_fixed_buffer_lamports", 10_000_000)
	viper.SetDefault("relay_api_url", "https://api.relay.link")
	viper.SetDefault("debridge_api_url", "https://dln.debridge.finance/v1.0")
	viper.SetDefault("debridge_stats_api_url", "https://stats-api.dln.trade")
	viper.SetDefault("price_api_url", "https://api.jup.ag/price/v2")
	viper.SetDefault("usdc_mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	viper.SetDefault("request_timeout", "10s")

	viper.SetEnvPrefix("SWAPD")
	viper.AutomaticEnv()

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Port:                   viper.GetString("port"),
		SolanaRPCURL:           viper.GetString("solana_rpc_url"),
		SponsorPrivateKey:      viper.GetString("sponsor_private_key"),
		DatabaseURL:            viper.GetString("database_url"),
		FeePercentageBps:       viper.GetUint64("fee_percentage_bps"),
		FeeFixedBufferLamports: viper.GetUint64("fee_fixed_buffer_lamports"),
		RelayAPIURL:            viper.GetString("relay_api_url"),
		DebridgeAPIURL:         viper.GetString("debridge_api_url"),
		DebridgeStatsAPIURL:    viper.GetString("debridge_stats_api_url"),
		PriceAPIURL:            viper.GetString("price_api_url"),
		USDCMint:               viper.GetString("usdc_mint"),
		RequestTimeout:         viper.GetDuration("request_timeout"),
	}

	if cfg.SponsorPrivateKey == "" {
		return nil, fmt.Errorf("sponsor private key not found. Please set SWAPD_SPONSOR_PRIVATE_KEY or add sponsor_private_key to .swapd.yaml")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL not found. Please set SWAPD_DATABASE_URL or add database_url to .swapd.yaml")
	}

	globalConfig = cfg
	return cfg, nil
}

// Get returns the global configuration, loading it on first use.
func Get() (*Config, error) {
	if globalConfig == nil {
		return Load()
	}
	return globalConfig, nil
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
