package transaction

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// UnspentOutput is one spendable output of the funding address. Snapshots are
// taken fresh from the chain layer on every send attempt and are never reused,
// since spending invalidates them.
type UnspentOutput struct {
	TxID     chainhash.Hash
	Vout     uint32
	Value    int64 // satoshis
	PkScript []byte
}

// PeerSession is the narrow submit-and-observe surface the coordinator needs
// from the network layer. Broadcast returns a stream of propagation fractions
// in [0.0, 1.0]; an immediate error means submission itself failed.
type PeerSession interface {
	Broadcast(ctx context.Context, tx *wire.MsgTx) (<-chan float64, error)
}

// ProgressFunc is invoked for every observed propagation fraction. It is a
// side effect only and never influences how the broadcast resolves.
type ProgressFunc func(txid chainhash.Hash, fraction float64)

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeError
	OutcomeTimeout
)

// Outcome is the single resolution of one broadcast attempt.
type Outcome struct {
	Kind OutcomeKind
	TxID chainhash.Hash
	Err  error
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "error"
	}
}
