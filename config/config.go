package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	RPCURL        string
	RouterAddress string
	PrivateKey    string

	// Accepted chain identifiers: the production network and its test
	// counterpart. Any other chain aborts before token interaction.
	ChainID     uint64
	TestChainID uint64

	SlippageBps      int64
	MinGuardWei      int64
	DustUSDThreshold float64

	// Consolidation target asset, used only to turn quotes into USD
	// estimates for display and dust filtering.
	TargetSymbol   string
	TargetDecimals uint8
	TargetUSDPrice float64

	Tokens      []string
	HistoryFile string
	AutoConfirm bool
}

var globalConfig *Config

// Load reads configuration from environment variables and config file.
func Load() (*Config, error) {
	viper.SetConfigName(".dustsweep")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("chain_id", 1)
	viper.SetDefault("test_chain_id", 11155111) // sepolia
	viper.SetDefault("slippage_bps", 1000)
	viper.SetDefault("min_guard_wei", 1000)
	viper.SetDefault("dust_usd_threshold", 5.0)
	viper.SetDefault("target_symbol", "USDC")
	viper.SetDefault("target_decimals", 6)
	viper.SetDefault("target_usd_price", 1.0)

	viper.SetEnvPrefix("DUSTSWEEP")
	viper.AutomaticEnv()

	// Config file is optional; env vars alone are enough.
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:           viper.GetString("rpc_url"),
		RouterAddress:    viper.GetString("router_address"),
		PrivateKey:       viper.GetString("private_key"),
		ChainID:          viper.GetUint64("chain_id"),
		TestChainID:      viper.GetUint64("test_chain_id"),
		SlippageBps:      viper.GetInt64("slippage_bps"),
		MinGuardWei:      viper.GetInt64("min_guard_wei"),
		DustUSDThreshold: viper.GetFloat64("dust_usd_threshold"),
		TargetSymbol:     viper.GetString("target_symbol"),
		TargetDecimals:   uint8(viper.GetUint("target_decimals")),
		TargetUSDPrice:   viper.GetFloat64("target_usd_price"),
		Tokens:           viper.GetStringSlice("tokens"),
		HistoryFile:      viper.GetString("history_file"),
		AutoConfirm:      viper.GetBool("auto_confirm"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL not found. Please set DUSTSWEEP_RPC_URL or add rpc_url to .dustsweep.yaml")
	}
	if c.RouterAddress == "" {
		return fmt.Errorf("router address not found. Please set DUSTSWEEP_ROUTER_ADDRESS or add router_address to .dustsweep.yaml")
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private key not found. Please set DUSTSWEEP_PRIVATE_KEY or add private_key to .dustsweep.yaml")
	}
	if c.SlippageBps <= 0 || c.SlippageBps >= 10000 {
		return fmt.Errorf("slippage_bps must be in (0, 10000), got %d", c.SlippageBps)
	}
	return nil
}

// AcceptedChains returns the chain id set the engine may run on.
func (c *Config) AcceptedChains() []uint64 {
	return []uint64{c.ChainID, c.TestChainID}
}

// Get returns the global configuration, loading it on first use.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}
