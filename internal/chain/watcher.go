package chain

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/chainmark-io/chainmark/internal/logger"
)

// WatchBalance polls the unspent source and invokes handler with the previous
// and new balance whenever it changes. It blocks until ctx is done, so
// callers run it in its own goroutine.
func WatchBalance(ctx context.Context, source UnspentSource, interval time.Duration, handler BalanceHandler) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	previous, err := source.CurrentBalance(ctx)
	if err != nil {
		logger.Error("Initial balance read failed: ", err)
		previous = btcutil.Amount(0)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			current, err := source.CurrentBalance(ctx)
			if err != nil {
				logger.Error("Balance read failed: ", err)
				continue
			}
			if current != previous {
				handler(previous, current)
				previous = current
			}
		case <-ctx.Done():
			return
		}
	}
}
