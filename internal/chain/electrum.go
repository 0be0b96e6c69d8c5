package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/checksum0/go-electrum/electrum"

	"github.com/chainmark-io/chainmark/lib/transaction"
)

// ElectrumConfig selects the electrum server backing the unspent-output
// source.
type ElectrumConfig struct {
	ServerAddr string
	UseSSL     bool
}

// ElectrumSource reads the funding address's unspent outputs and balance from
// an electrum server and doubles as the independent mempool checker for
// broadcast progress.
type ElectrumSource struct {
	client     *electrum.Client
	addr       btcutil.Address
	pkScript   []byte
	scriptHash string
}

// NewElectrumSource connects to the configured electrum server and prepares
// the script hash queries for addr.
func NewElectrumSource(ctx context.Context, cfg ElectrumConfig, addr btcutil.Address) (*ElectrumSource, error) {
	var client *electrum.Client
	var err error
	if cfg.UseSSL {
		client, err = electrum.NewClientSSL(ctx, cfg.ServerAddr, nil)
	} else {
		client, err = electrum.NewClientTCP(ctx, cfg.ServerAddr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create electrum client: %v", err)
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		client.Shutdown()
		return nil, fmt.Errorf("failed to build script for address: %v", err)
	}

	return &ElectrumSource{
		client:     client,
		addr:       addr,
		pkScript:   pkScript,
		scriptHash: electrumScriptHash(pkScript),
	}, nil
}

// CurrentUnspents returns a fresh snapshot of the address's spendable
// outputs, in the server's listing order.
func (e *ElectrumSource) CurrentUnspents(ctx context.Context) ([]transaction.UnspentOutput, error) {
	results, err := e.client.ListUnspent(ctx, e.scriptHash)
	if err != nil {
		return nil, fmt.Errorf("failed to list unspent outputs: %v", err)
	}

	utxos := make([]transaction.UnspentOutput, 0, len(results))
	for _, r := range results {
		txid, err := chainhash.NewHashFromStr(r.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to parse txid %s: %v", r.Hash, err)
		}
		utxos = append(utxos, transaction.UnspentOutput{
			TxID:     *txid,
			Vout:     uint32(r.Position),
			Value:    int64(r.Value),
			PkScript: e.pkScript,
		})
	}

	log.Printf("Found %d unspent outputs for %s", len(utxos), e.addr.EncodeAddress())
	return utxos, nil
}

// CurrentBalance returns the confirmed balance of the funding address.
func (e *ElectrumSource) CurrentBalance(ctx context.Context) (btcutil.Amount, error) {
	balance, err := e.client.GetBalance(ctx, e.scriptHash)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %v", err)
	}
	return btcutil.Amount(balance.Confirmed), nil
}

// InMempool reports whether the server already knows the transaction.
func (e *ElectrumSource) InMempool(ctx context.Context, txid chainhash.Hash) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := e.client.GetRawTransaction(ctx, txid.String())
	if err != nil {
		return false, fmt.Errorf("error checking electrum mempool: %v", err)
	}
	return tx != "", nil
}

// Close shuts down the electrum connection.
func (e *ElectrumSource) Close() {
	e.client.Shutdown()
}

// electrumScriptHash is the sha256 of the locking script, reversed, hex
// encoded. Electrum servers index scripts by this key.
func electrumScriptHash(pkScript []byte) string {
	sum := sha256.Sum256(pkScript)
	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return hex.EncodeToString(sum[:])
}
