package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chainmark-io/chainmark/internal/api"
	"github.com/chainmark-io/chainmark/internal/chain"
	"github.com/chainmark-io/chainmark/internal/config"
	historydb "github.com/chainmark-io/chainmark/internal/database"
	"github.com/chainmark-io/chainmark/internal/logger"
	"github.com/chainmark-io/chainmark/internal/wallet"
)

var rootCmd = &cobra.Command{
	Use:   "chainmark",
	Short: "Bitcoin message anchoring CLI",
	Long:  `Anchor short messages into the Bitcoin blockchain using null-data outputs.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(importCmd)

	addressCmd.Flags().Bool("copy", false, "copy the funding address to the clipboard")
	sendCmd.Flags().String("network", "", "network to anchor on (defaults to the configured network)")
	balanceCmd.Flags().String("network", "", "network to query (defaults to the configured network)")
}

func initConfig() {
	err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		log.Fatalf("Error getting current directory: %v", err)
	}
	viper.Set("base_dir", baseDir)

	if err := logger.Init(viper.GetString("log_file")); err != nil {
		log.Printf("Error initializing logger: %s", err.Error())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the anchoring service",
	Long: `Decrypt the controlling key, connect to the configured network, and run
until interrupted. When api_enabled is set the HTTP API is served on
localhost for the send, balance, and history commands.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		defer logger.Cleanup()

		wif, err := unlockKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error unlocking key: %v\n", err)
			os.Exit(1)
		}

		if err := historydb.InitDB(viper.GetString("history_db_path")); err != nil {
			fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
			os.Exit(1)
		}

		registry := wallet.NewRegistry()
		service := wallet.NewServiceFromConfig(registry)

		network := viper.GetString("network")
		err = service.StartService(context.Background(), wallet.StartConfig{
			Network:  network,
			WIF:      wif,
			DataDir:  viper.GetString("data_dir"),
			AddPeers: viper.GetStringSlice("add_peers"),
			Electrum: chain.ElectrumConfig{
				ServerAddr: viper.GetString("electrum_server"),
				UseSSL:     viper.GetBool("electrum_use_ssl"),
			},
			KeyBirth:            parseBirthdate(viper.GetString("key_birthdate")),
			SyncTimeout:         viper.GetDuration("sync_timeout"),
			BalancePollInterval: viper.GetDuration("balance_poll_interval"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting service: %v\n", err)
			os.Exit(1)
		}

		if viper.GetBool("api_enabled") {
			go func() {
				if err := api.NewAPI(service).StartServer(); err != nil {
					log.Printf("API server stopped: %s", err.Error())
				}
			}()
		}

		log.Printf("chainmark running on %s, press Ctrl+C to stop", network)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down")
		if err := service.StopService(network); err != nil {
			log.Printf("Error stopping service: %s", err.Error())
		}
	},
}

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Anchor a message into the blockchain",
	Long:  `Send a message to the running service to be embedded in a Bitcoin transaction.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		network, _ := cmd.Flags().GetString("network")

		var result map[string]interface{}
		err := callAPI("POST", "/send", map[string]string{
			"message": args[0],
			"network": network,
		}, &result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error sending message: %v\n", err)
			os.Exit(1)
		}

		json.NewEncoder(os.Stdout).Encode(result)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Get the current funding balance",
	Long:  `Retrieve the confirmed balance of the funding address from the running service.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		network, _ := cmd.Flags().GetString("network")
		path := "/balance"
		if network != "" {
			path += "?network=" + network
		}

		var result map[string]interface{}
		if err := callAPI("GET", path, nil, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error getting balance: %v\n", err)
			os.Exit(1)
		}

		json.NewEncoder(os.Stdout).Encode(result)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously anchored messages",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var result []map[string]interface{}
		if err := callAPI("GET", "/messages", nil, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error getting history: %v\n", err)
			os.Exit(1)
		}

		json.NewEncoder(os.Stdout).Encode(result)
	},
}

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the funding address",
	Long:  `Decrypt the controlling key and print the funding address to deposit to.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		wif, err := unlockKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error unlocking key: %v\n", err)
			os.Exit(1)
		}

		params, err := wallet.NetworkParams(viper.GetString("network"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		privKey, err := wallet.DecodePrivateKey(params, wif)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding key: %v\n", err)
			os.Exit(1)
		}
		addr, err := wallet.DeriveAddress(params, privKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error deriving address: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(addr.EncodeAddress())

		if copyFlag, _ := cmd.Flags().GetBool("copy"); copyFlag {
			if err := clipboard.WriteAll(addr.EncodeAddress()); err != nil {
				fmt.Fprintf(os.Stderr, "Error copying to clipboard: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("Address copied to clipboard")
		}
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen [key-name]",
	Short: "Generate a new controlling key",
	Long: `Generate a new controlling key, encrypt it with a passphrase, and save it
under the configured wallet directory. The recovery mnemonic is printed
once; write it down.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		keyName := args[0]

		params, err := wallet.NetworkParams(viper.GetString("network"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		mnemonic, wif, err := wallet.GenerateKey(params)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating key: %v\n", err)
			os.Exit(1)
		}

		if err := saveEncryptedKey(keyName, wif); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving key: %v\n", err)
			os.Exit(1)
		}

		addr, err := addressForWIF(params, wif)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error deriving address: %v\n", err)
			os.Exit(1)
		}

		result := struct {
			KeyName  string `json:"keyName"`
			Mnemonic string `json:"mnemonic"`
			Address  string `json:"address"`
		}{
			KeyName:  keyName,
			Mnemonic: mnemonic,
			Address:  addr,
		}

		json.NewEncoder(os.Stdout).Encode(result)
	},
}

var importCmd = &cobra.Command{
	Use:   "import [key-name] [mnemonic]",
	Short: "Import a controlling key from a recovery mnemonic",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		keyName := args[0]
		mnemonic := args[1]

		params, err := wallet.NetworkParams(viper.GetString("network"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		wif, err := wallet.KeyFromMnemonic(params, mnemonic)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recovering key: %v\n", err)
			os.Exit(1)
		}

		if err := saveEncryptedKey(keyName, wif); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving key: %v\n", err)
			os.Exit(1)
		}

		addr, err := addressForWIF(params, wif)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error deriving address: %v\n", err)
			os.Exit(1)
		}

		result := struct {
			KeyName string `json:"keyName"`
			Address string `json:"address"`
			Message string `json:"message"`
		}{
			KeyName: keyName,
			Address: addr,
			Message: "Key imported successfully",
		}

		json.NewEncoder(os.Stdout).Encode(result)
	},
}
