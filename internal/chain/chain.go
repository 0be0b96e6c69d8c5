package chain

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chainmark-io/chainmark/lib/transaction"
)

// UnspentSource supplies the spendable output set and balance of the funding
// address. Implementations return a fresh snapshot on every call; callers must
// never cache results across send attempts.
type UnspentSource interface {
	CurrentUnspents(ctx context.Context) ([]transaction.UnspentOutput, error)
	CurrentBalance(ctx context.Context) (btcutil.Amount, error)
}

// MempoolChecker reports whether a transaction has reached the public
// mempool through a source independent of our own peer connections.
type MempoolChecker interface {
	InMempool(ctx context.Context, txid chainhash.Hash) (bool, error)
}

// BalanceHandler is invoked with the previous and new balance whenever the
// funding address receives or spends coins.
type BalanceHandler func(previous, current btcutil.Amount)
