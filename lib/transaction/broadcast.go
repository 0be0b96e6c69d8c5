package transaction

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// DefaultBroadcastTimeout bounds how long one broadcast attempt waits for
// terminal propagation confirmation.
const DefaultBroadcastTimeout = 60 * time.Second

// confirmationThreshold is the propagation fraction treated as final.
const confirmationThreshold = 0.9999999

// Broadcast submits tx through the session and blocks until exactly one
// outcome is available: Success once the propagation fraction passes the
// confirmation threshold, Error if submission itself failed, or Timeout once
// the bound elapses. Every observed fraction is forwarded to progress (which
// may be nil) before resolution; values arriving after resolution are
// dropped. A timed-out transaction is not retracted and may still confirm.
func Broadcast(ctx context.Context, session PeerSession, tx *wire.MsgTx, progress ProgressFunc, timeout time.Duration) Outcome {
	txid := tx.TxHash()
	if timeout <= 0 {
		timeout = DefaultBroadcastTimeout
	}

	stream, err := session.Broadcast(ctx, tx)
	if err != nil {
		log.Printf("Broadcast submission failed for %s: %v", txid.String(), err)
		return Outcome{Kind: OutcomeError, TxID: txid, Err: fmt.Errorf("broadcast submission failed: %w", err)}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case fraction, ok := <-stream:
			if !ok {
				// Stream ended without terminal confirmation; keep
				// waiting so the attempt resolves by the timer.
				stream = nil
				continue
			}
			if progress != nil {
				progress(txid, fraction)
			}
			if fraction > confirmationThreshold {
				log.Printf("Transaction %s confirmed by peers (progress %f)", txid.String(), fraction)
				return Outcome{Kind: OutcomeSuccess, TxID: txid}
			}
		case <-timer.C:
			log.Printf("Broadcast of %s timed out after %v; transaction may still be in flight", txid.String(), timeout)
			return Outcome{Kind: OutcomeTimeout, TxID: txid, Err: ErrBroadcastTimeout}
		case <-ctx.Done():
			return Outcome{Kind: OutcomeError, TxID: txid, Err: ctx.Err()}
		}
	}
}
