package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := "cVt4o7BGAig1UXywgGSmARhxMdzP5qvQsxKkSsc1XEkw3tDTQFpy"

	encrypted, err := Encrypt(secret, "correct horse")
	require.NoError(t, err)
	assert.NotContains(t, encrypted, secret)

	plain, err := Decrypt(encrypted, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, secret, plain)
}

func TestDecryptWrongPassword(t *testing.T) {
	encrypted, err := Encrypt("secret", "right")
	require.NoError(t, err)

	_, err = Decrypt(encrypted, "wrong")
	assert.Error(t, err)
}

func TestDecryptMalformedCiphertext(t *testing.T) {
	_, err := Decrypt("only:two", "pw")
	assert.Error(t, err)
}

func TestKeyFileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, SaveKeyFile(dir, "anchor", "salt:iv:cipher"))

	loaded, err := LoadKeyFile(dir, "anchor")
	require.NoError(t, err)
	assert.Equal(t, "salt:iv:cipher", loaded)
}

func TestLoadKeyFileMissing(t *testing.T) {
	_, err := LoadKeyFile(t.TempDir(), "nope")
	assert.Error(t, err)
}
