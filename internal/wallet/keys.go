package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"
)

// DecodePrivateKey decodes a WIF-encoded private key and checks it belongs to
// the given network.
func DecodePrivateKey(params *chaincfg.Params, encoded string) (*btcec.PrivateKey, error) {
	wif, err := btcutil.DecodeWIF(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode WIF: %v", err)
	}
	if !wif.IsForNet(params) {
		return nil, fmt.Errorf("key is not for network %s", params.Name)
	}
	return wif.PrivKey, nil
}

// DeriveAddress derives the P2PKH funding address of the controlling key.
func DeriveAddress(params *chaincfg.Params, key *btcec.PrivateKey) (btcutil.Address, error) {
	pubKeyHash := btcutil.Hash160(key.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubKeyHash, params)
	if err != nil {
		return nil, fmt.Errorf("failed to derive address: %v", err)
	}
	return addr, nil
}

// GenerateKey creates a fresh BIP39 mnemonic and the WIF of the key derived
// from its seed. The mnemonic is the only backup of the key.
func GenerateKey(params *chaincfg.Params) (mnemonic string, wif string, err error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", "", fmt.Errorf("error generating entropy: %v", err)
	}
	mnemonic, err = bip39.NewMnemonic(entropy)
	if err != nil {
		return "", "", fmt.Errorf("error generating mnemonic: %v", err)
	}

	wif, err = KeyFromMnemonic(params, mnemonic)
	if err != nil {
		return "", "", err
	}
	return mnemonic, wif, nil
}

// KeyFromMnemonic recovers the WIF-encoded key from a BIP39 mnemonic.
func KeyFromMnemonic(params *chaincfg.Params, mnemonic string) (string, error) {
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return "", fmt.Errorf("error generating seed: %v", err)
	}

	rootKey, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return "", fmt.Errorf("error generating root key: %v", err)
	}
	privKey, err := rootKey.ECPrivKey()
	if err != nil {
		return "", fmt.Errorf("error extracting private key: %v", err)
	}

	encoded, err := btcutil.NewWIF(privKey, params, true)
	if err != nil {
		return "", fmt.Errorf("error encoding WIF: %v", err)
	}
	return encoded.String(), nil
}
