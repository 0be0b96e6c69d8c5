package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/scrypt"
)

// Encrypt seals plaintext with a key derived from password via scrypt,
// producing salt:iv:ciphertext in base64.
func Encrypt(plaintext string, password string) (string, error) {
	key, salt, err := deriveKey(password, nil)
	if err != nil {
		return "", err
	}
	iv := make([]byte, 12)
	if _, err := rand.Read(iv); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	ciphertext := aesgcm.Seal(nil, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(salt) + ":" +
		base64.StdEncoding.EncodeToString(iv) + ":" +
		base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext string, password string) (string, error) {
	parts := strings.Split(ciphertext, ":")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid ciphertext format")
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", err
	}
	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", err
	}
	encryptedData, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return "", err
	}

	key, _, err := deriveKey(password, salt)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	plaintext, err := aesgcm.Open(nil, iv, encryptedData, nil)
	if err != nil {
		return "", fmt.Errorf("error decrypting: wrong password or corrupted data")
	}

	return string(plaintext), nil
}

func deriveKey(password string, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, err
		}
	}

	key, err := scrypt.Key([]byte(password), salt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}

// SaveKeyFile writes the encrypted WIF of a named wallet to a .env file in
// walletDir.
func SaveKeyFile(walletDir, walletName, encryptedWIF string) error {
	if err := os.MkdirAll(walletDir, 0700); err != nil {
		return fmt.Errorf("error creating wallet directory: %v", err)
	}
	envFile := filepath.Join(walletDir, walletName+".env")
	content := fmt.Sprintf("ENCRYPTED_WIF=%q\n", encryptedWIF)
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		return fmt.Errorf("error writing wallet file: %v", err)
	}
	return nil
}

// LoadKeyFile reads the encrypted WIF of a named wallet back from its .env
// file.
func LoadKeyFile(walletDir, walletName string) (string, error) {
	envFile := filepath.Join(walletDir, walletName+".env")
	env, err := godotenv.Read(envFile)
	if err != nil {
		return "", fmt.Errorf("error loading wallet file: %v", err)
	}
	encrypted := env["ENCRYPTED_WIF"]
	if encrypted == "" {
		return "", fmt.Errorf("encrypted key not found in %s", envFile)
	}
	return encrypted, nil
}
