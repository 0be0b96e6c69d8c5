package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	historydb "github.com/chainmark-io/chainmark/internal/database"
	"github.com/chainmark-io/chainmark/internal/logger"
	"github.com/chainmark-io/chainmark/lib/transaction"
)

// Send anchors message on the given network and blocks until the broadcast
// resolves. Preconditions are checked before any work: the network must be
// known, a context must be registered for it, and the message must be
// non-empty. The per-network send lock is held from unspent snapshotting
// until resolution, so at most one transaction is in flight per network.
func (s *Service) Send(ctx context.Context, message []byte, network string, progress transaction.ProgressFunc) (chainhash.Hash, error) {
	if len(message) == 0 {
		return chainhash.Hash{}, fmt.Errorf("%w: empty message", ErrInvalidArguments)
	}
	if _, err := NetworkParams(network); err != nil {
		return chainhash.Hash{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}

	wctx, ok := s.Registry.Lookup(network)
	if !ok {
		return chainhash.Hash{}, fmt.Errorf("%w: %s", ErrServiceNotReady, network)
	}

	wctx.sendMu.Lock()
	defer wctx.sendMu.Unlock()

	// Fresh snapshot per attempt; the previous send invalidated any older
	// one.
	utxos, err := wctx.Source.CurrentUnspents(ctx)
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("failed to snapshot unspent outputs: %w", err)
	}

	tx, fee, err := transaction.CreateMessageTransaction(message, utxos, wctx.Address, wctx.PrivKey, s.FeeFactor)
	if err != nil {
		return chainhash.Hash{}, err
	}

	outcome := transaction.Broadcast(ctx, wctx.Session, tx, progress, s.BroadcastTimeout)
	s.recordOutcome(message, network, int64(fee), outcome)

	switch outcome.Kind {
	case transaction.OutcomeSuccess:
		log.Printf("Message anchored on %s. TxID: %s", network, outcome.TxID.String())
		s.announce(ctx, outcome.TxID)
		return outcome.TxID, nil
	case transaction.OutcomeTimeout:
		return outcome.TxID, transaction.ErrBroadcastTimeout
	default:
		return outcome.TxID, outcome.Err
	}
}

// SendIfReady targets the default network and reports ErrServiceNotReady
// instead of attempting the send when its context is absent. It never
// initializes anything itself.
func (s *Service) SendIfReady(ctx context.Context, message []byte, progress transaction.ProgressFunc) (chainhash.Hash, error) {
	if _, ok := s.Registry.Lookup(s.DefaultNetwork); !ok {
		return chainhash.Hash{}, fmt.Errorf("%w: %s", ErrServiceNotReady, s.DefaultNetwork)
	}
	return s.Send(ctx, message, s.DefaultNetwork, progress)
}

func (s *Service) recordOutcome(message []byte, network string, fee int64, outcome transaction.Outcome) {
	rec := &historydb.MessageRecord{
		TxID:    outcome.TxID.String(),
		Network: network,
		Payload: hex.EncodeToString(message),
		Fee:     fee,
		Outcome: outcome.String(),
	}
	if outcome.Err != nil {
		rec.Detail = outcome.Err.Error()
	}
	if err := historydb.SaveMessageRecord(rec); err != nil {
		logger.Error("Failed to record send outcome: ", err)
	}
}

func (s *Service) announce(ctx context.Context, txid chainhash.Hash) {
	if s.Announcer == nil {
		return
	}
	if err := s.Announcer.Publish(ctx, txid); err != nil {
		log.Printf("Relay announcement failed: %v", err)
	}
}
