package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/chainmark-io/chainmark/internal/api"
	"github.com/chainmark-io/chainmark/internal/wallet"
)

func promptPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("error reading passphrase: %v", err)
	}
	return string(pass), nil
}

// unlockKey loads the configured key file and decrypts the controlling key
// with a passphrase read from the terminal.
func unlockKey() (string, error) {
	keyName := viper.GetString("wallet_name")
	if keyName == "" {
		return "", fmt.Errorf("no wallet_name configured; run keygen or import first")
	}

	encrypted, err := wallet.LoadKeyFile(viper.GetString("wallet_dir"), keyName)
	if err != nil {
		return "", err
	}

	passphrase, err := promptPassphrase("Enter passphrase: ")
	if err != nil {
		return "", err
	}

	wif, err := wallet.Decrypt(encrypted, passphrase)
	if err != nil {
		return "", fmt.Errorf("error decrypting key (wrong passphrase?): %v", err)
	}
	return wif, nil
}

// saveEncryptedKey prompts for a passphrase twice and writes the encrypted
// key file under the configured wallet directory.
func saveEncryptedKey(keyName, wif string) error {
	passphrase, err := promptPassphrase("Choose a passphrase: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassphrase("Confirm passphrase: ")
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return fmt.Errorf("passphrases do not match")
	}

	encrypted, err := wallet.Encrypt(wif, passphrase)
	if err != nil {
		return fmt.Errorf("error encrypting key: %v", err)
	}

	return wallet.SaveKeyFile(viper.GetString("wallet_dir"), keyName, encrypted)
}

func addressForWIF(params *chaincfg.Params, wif string) (string, error) {
	privKey, err := wallet.DecodePrivateKey(params, wif)
	if err != nil {
		return "", err
	}
	addr, err := wallet.DeriveAddress(params, privKey)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// parseBirthdate parses a YYYY-MM-DD key birthdate from the config. An empty
// or malformed value falls back to the zero time, which the service treats
// as "today".
func parseBirthdate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	birth, err := time.Parse("2006-01-02", value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid key_birthdate %q, ignoring\n", value)
		return time.Time{}
	}
	return birth
}

// callAPI sends a request to the local daemon and decodes the JSON response
// into out.
func callAPI(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("http://127.0.0.1:%d%s", viper.GetInt("api_port"), path)
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	if secret := viper.GetString("jwt_secret"); secret != "" {
		token, err := api.GenerateToken("cli", 5*time.Minute)
		if err != nil {
			return fmt.Errorf("error generating API token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("is the service running? %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s: %s", resp.Status, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
