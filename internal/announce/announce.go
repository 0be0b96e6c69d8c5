package announce

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/nbd-wtf/go-nostr"
)

// Announcer publishes the txid of each anchored message as a text note to a
// nostr relay, so anyone following the key can locate the on-chain payload.
type Announcer struct {
	RelayURL   string
	PrivateKey string // hex nostr key; generated when empty
}

func NewAnnouncer(relayURL string) *Announcer {
	return &Announcer{
		RelayURL:   relayURL,
		PrivateKey: nostr.GeneratePrivateKey(),
	}
}

// Publish sends the announcement. Failures never affect the send outcome;
// callers log and move on.
func (a *Announcer) Publish(ctx context.Context, txid chainhash.Hash) error {
	pub, err := nostr.GetPublicKey(a.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to derive nostr pubkey: %v", err)
	}

	event := nostr.Event{
		PubKey:    pub,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      nostr.KindTextNote,
		Tags:      nostr.Tags{},
		Content:   fmt.Sprintf("anchored message in bitcoin tx %s", txid.String()),
	}
	if err := event.Sign(a.PrivateKey); err != nil {
		return fmt.Errorf("failed to sign nostr event: %v", err)
	}

	relay, err := nostr.RelayConnect(ctx, a.RelayURL)
	if err != nil {
		return fmt.Errorf("failed to connect to relay %s: %v", a.RelayURL, err)
	}
	defer relay.Close()

	if err := relay.Publish(ctx, event); err != nil {
		return fmt.Errorf("failed to publish to relay: %v", err)
	}
	return nil
}
