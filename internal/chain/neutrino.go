package chain

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/walletdb"
	"github.com/lightninglabs/neutrino"
	"github.com/lightninglabs/neutrino/headerfs"

	"github.com/chainmark-io/chainmark/internal/logger"
)

// Config carries everything needed to bring up one peer session.
type Config struct {
	DataDir     string
	Params      *chaincfg.Params
	AddPeers    []string
	SyncTimeout time.Duration
	Mempool     MempoolChecker // optional, sharpens broadcast progress
}

// Session is a neutrino-backed peer session. One session is shared by every
// send attempt on its network and lives until service shutdown.
type Session struct {
	service *neutrino.ChainService
	db      walletdb.DB
	params  *chaincfg.Params
	mempool MempoolChecker
	quit    chan struct{}
}

// Connect opens the header database, starts the neutrino chain service, and
// blocks until the chain is synced or the sync timeout elapses. On failure
// the partially started session is torn down before the error is returned.
func Connect(cfg Config) (*Session, error) {
	neutrinoDBPath := filepath.Join(cfg.DataDir, "neutrino_db")
	if err := os.MkdirAll(neutrinoDBPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating neutrino DB directory: %v", err)
	}

	db, err := walletdb.Create("bdb", filepath.Join(neutrinoDBPath, "neutrino.db"), true, time.Second*60)
	if err != nil {
		return nil, fmt.Errorf("error creating neutrino database: %v", err)
	}

	service, err := neutrino.NewChainService(neutrino.Config{
		DataDir:         neutrinoDBPath,
		Database:        db,
		ChainParams:     *cfg.Params,
		AddPeers:        cfg.AddPeers,
		PersistToDisk:   true,
		FilterCacheSize: neutrino.DefaultFilterCacheSize,
		BlockCacheSize:  neutrino.DefaultBlockCacheSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating chain service: %v", err)
	}

	log.Println("Starting chain service")
	if err := service.Start(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error starting chain service: %v", err)
	}

	s := &Session{
		service: service,
		db:      db,
		params:  cfg.Params,
		mempool: cfg.Mempool,
		quit:    make(chan struct{}),
	}

	syncTimeout := cfg.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 20 * time.Minute
	}
	if err := s.waitForSync(syncTimeout); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// waitForSync polls the chain service until it reports being current.
func (s *Session) waitForSync(timeout time.Duration) error {
	log.Println("Starting initial syncing process...")
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		time.Sleep(10 * time.Second)

		bestBlock, err := s.service.BestBlock()
		if err != nil {
			log.Printf("Error getting best block: %v", err)
			continue
		}
		log.Printf("Current block height: %d", bestBlock.Height)

		peers := s.service.Peers()
		log.Printf("Connected peers: %d", len(peers))

		if len(peers) > 0 && s.service.IsCurrent() {
			log.Println("Chain is synced!")
			return nil
		}
	}

	return fmt.Errorf("chain sync timed out after %v", timeout)
}

// PeerCount reports the number of currently connected peers.
func (s *Session) PeerCount() int {
	return len(s.service.Peers())
}

// Broadcast submits tx to the connected peers and returns a propagation
// stream. Submission failures are returned immediately; the stream then
// carries fractions in [0.0, 1.0] until terminal confirmation or until the
// caller stops listening.
func (s *Session) Broadcast(ctx context.Context, tx *wire.MsgTx) (<-chan float64, error) {
	peers := s.service.Peers()
	if len(peers) == 0 {
		return nil, fmt.Errorf("no connected peers to broadcast to")
	}

	if err := s.service.SendTransaction(tx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %v", err)
	}

	ch := make(chan float64, 8)
	go s.watchPropagation(ctx, tx, ch)
	return ch, nil
}

// watchPropagation approximates propagation progress. Neutrino exposes no
// per-peer relay acknowledgements: acceptance of the send counts as the
// halfway mark, and the terminal mark is set once an independent mempool
// source reports the transaction. Without a mempool source the send
// acceptance itself is terminal.
func (s *Session) watchPropagation(ctx context.Context, tx *wire.MsgTx, ch chan<- float64) {
	defer close(ch)
	txid := tx.TxHash()

	if s.mempool == nil {
		ch <- 1.0
		return
	}
	ch <- 0.5

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			seen, err := s.mempool.InMempool(ctx, txid)
			if err != nil {
				logger.Error("Mempool check failed for ", txid.String(), ": ", err)
				continue
			}
			if seen {
				ch <- 1.0
				return
			}
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		}
	}
}

// WatchAddress registers a rescan watch on addr starting from the estimated
// block height of birth. The creation time is deliberately placed before the
// address's first real transaction so historical balance reconciles.
func (s *Session) WatchAddress(addr btcutil.Address, birth time.Time, onTx func(tx *btcutil.Tx, height int32)) error {
	bestBlock, err := s.service.BestBlock()
	if err != nil {
		return fmt.Errorf("failed to get best block: %v", err)
	}

	startHeight := EstimateBlockHeight(birth)
	if startHeight > bestBlock.Height {
		startHeight = bestBlock.Height
	}

	ntfn := rpcclient.NotificationHandlers{
		OnFilteredBlockConnected: func(height int32, header *wire.BlockHeader, txns []*btcutil.Tx) {
			for _, tx := range txns {
				log.Printf("Transaction for watched address found in block %d: %s", height, tx.Hash())
				if onTx != nil {
					onTx(tx, height)
				}
			}
		},
	}

	rescan := neutrino.NewRescan(
		&neutrino.RescanChainSource{ChainService: s.service},
		neutrino.StartBlock(&headerfs.BlockStamp{Height: startHeight}),
		neutrino.WatchAddrs(addr),
		neutrino.NotificationHandlers(ntfn),
		neutrino.QuitChan(s.quit),
	)

	errChan := rescan.Start()
	go func() {
		select {
		case err := <-errChan:
			if err != nil {
				logger.Error("Address rescan stopped: ", err)
			}
		case <-s.quit:
		}
	}()

	return nil
}

// Close stops the rescan watchers and the chain service and releases the
// header database.
func (s *Session) Close() error {
	close(s.quit)
	if err := s.service.Stop(); err != nil {
		log.Printf("Error stopping chain service: %v", err)
	}
	return s.db.Close()
}

// EstimateBlockHeight maps a wall-clock date to an approximate mainnet block
// height, assuming 144 blocks per day since genesis.
func EstimateBlockHeight(targetDate time.Time) int32 {
	genesisDate := time.Date(2009, time.January, 3, 18, 15, 5, 0, time.UTC)
	daysSinceGenesis := targetDate.Sub(genesisDate).Hours() / 24
	if daysSinceGenesis < 0 {
		return 0
	}
	return int32(daysSinceGenesis * 144)
}
