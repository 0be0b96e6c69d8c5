package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainmark-io/chainmark/internal/wallet"
	"github.com/chainmark-io/chainmark/lib/transaction"
)

type stubSource struct {
	utxos   []transaction.UnspentOutput
	balance btcutil.Amount
}

func (s *stubSource) CurrentUnspents(ctx context.Context) ([]transaction.UnspentOutput, error) {
	return s.utxos, nil
}

func (s *stubSource) CurrentBalance(ctx context.Context) (btcutil.Amount, error) {
	return s.balance, nil
}

type stubSession struct{}

func (s *stubSession) Broadcast(ctx context.Context, tx *wire.MsgTx) (<-chan float64, error) {
	ch := make(chan float64, 1)
	ch <- 1.0
	return ch, nil
}

func newTestAPI(t *testing.T) *API {
	t.Helper()

	params, err := wallet.NetworkParams("regtest")
	require.NoError(t, err)
	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := wallet.DeriveAddress(params, key)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	wctx := &wallet.Context{
		Network: "regtest",
		Params:  params,
		PrivKey: key,
		Address: addr,
		Session: &stubSession{},
		Source: &stubSource{
			balance: 75000,
			utxos: []transaction.UnspentOutput{{
				TxID:     chainhash.HashH([]byte("funding")),
				Vout:     0,
				Value:    75000,
				PkScript: pkScript,
			}},
		},
	}

	registry := wallet.NewRegistry()
	require.NoError(t, registry.Register(wctx))
	service := wallet.NewService(registry)
	service.DefaultNetwork = "regtest"
	service.BroadcastTimeout = time.Second

	return NewAPI(service)
}

func TestHandleSend(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"message":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	a.handleSend(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp sendResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Outcome)
	assert.NotEmpty(t, resp.TxID)
}

func TestHandleSendEmptyMessage(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"message":""}`))
	rec := httptest.NewRecorder()

	a.handleSend(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSendUnregisteredNetwork(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/send", strings.NewReader(`{"message":"x","network":"mainnet"}`))
	rec := httptest.NewRecorder()

	a.handleSend(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleBalance(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/balance?network=regtest", nil)
	rec := httptest.NewRecorder()

	a.handleBalance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, float64(75000), resp["satoshis"])
}

func TestHandleStatus(t *testing.T) {
	a := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()

	a.handleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string][]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, []string{"regtest"}, resp["networks"])
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt_secret", "test-secret")
	defer viper.Set("jwt_secret", "")

	handler := AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Missing token.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, err := GenerateToken("cli", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Garbage token.
	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
