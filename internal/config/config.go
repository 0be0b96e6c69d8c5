package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoadConfig loads the configuration and sets default values for development/production
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create a default one
			return createDefaultConfig()
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Ensure we have sensible defaults in case they are not in the config file
	setDefaults()

	return nil
}

// setDefaults sets default configuration values based on the environment
func setDefaults() {
	env := viper.GetString("ENV")
	if env == "" {
		env = "development"
		viper.Set("ENV", env)
	}

	if env == "development" {
		viper.SetDefault("network", "testnet")
		viper.SetDefault("history_db_path", "./dev_chainmark.db")
		viper.SetDefault("log_level", "debug")
	} else if env == "production" {
		viper.SetDefault("network", "mainnet")
		viper.SetDefault("history_db_path", "/var/lib/chainmark/chainmark.db")
		viper.SetDefault("log_level", "info")
	}

	// Common defaults for both environments
	viper.SetDefault("data_dir", "./chainmark_data")
	viper.SetDefault("wallet_dir", "./wallets")
	viper.SetDefault("wallet_name", "")
	viper.SetDefault("log_file", "./chainmark.log")
	viper.SetDefault("fee_factor", 1) // satoshis per byte
	viper.SetDefault("broadcast_timeout", "60s")
	viper.SetDefault("sync_timeout", "20m")
	viper.SetDefault("balance_poll_interval", "30s")
	viper.SetDefault("key_birthdate", "") // YYYY-MM-DD, empty means today
	viper.SetDefault("electrum_server", "electrum.blockstream.info:50002")
	viper.SetDefault("electrum_use_ssl", true)
	viper.SetDefault("announce_relay", "") // optional nostr relay for txid announcements
	viper.SetDefault("api_port", 9137)
	viper.SetDefault("api_enabled", false)
	viper.SetDefault("jwt_secret", "")

	viper.SetDefault("add_peers", []string{
		"seed.bitcoin.sipa.be:8333",
		"dnsseed.bluematt.me:8333",
		"seed.bitnodes.io:8333",
		"dnsseed.bitcoin.dashjr.org:8333",
		"seed.bitcoinstats.com:8333",
		"seed.bitcoin.jonasschnelli.ch:8333",
		"seed.btc.petertodd.org:8333",
		"seed.bitcoin.sprovoost.nl:8333",
		"dnsseed.emzy.de:8333",
		"seed.bitcoin.wiz.biz:8333",
		"btcd-mainnet.lightning.computer:8333",
	})
}

// createDefaultConfig creates a new configuration file if it doesn't exist
func createDefaultConfig() error {
	setDefaults()

	err := viper.SafeWriteConfig()
	if err != nil {
		if os.IsExist(err) {
			// If the config already exists, attempt to overwrite it
			err = viper.WriteConfig()
			if err != nil {
				return fmt.Errorf("error writing config file: %w", err)
			}
		} else {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	fmt.Println("Created default configuration file")
	return nil
}
