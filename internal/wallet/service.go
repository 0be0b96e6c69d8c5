package wallet

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/viper"

	"github.com/chainmark-io/chainmark/internal/announce"
	"github.com/chainmark-io/chainmark/internal/chain"
	"github.com/chainmark-io/chainmark/internal/logger"
	"github.com/chainmark-io/chainmark/lib/transaction"
)

// Service is the caller-facing entry point: it owns the registry of wallet
// contexts and the send configuration.
type Service struct {
	Registry         *Registry
	Announcer        *announce.Announcer
	FeeFactor        int64
	BroadcastTimeout time.Duration
	DefaultNetwork   string
}

func NewService(registry *Registry) *Service {
	return &Service{
		Registry:         registry,
		FeeFactor:        1,
		BroadcastTimeout: transaction.DefaultBroadcastTimeout,
		DefaultNetwork:   "mainnet",
	}
}

// NewServiceFromConfig builds a Service from the loaded viper configuration.
func NewServiceFromConfig(registry *Registry) *Service {
	s := NewService(registry)
	if factor := viper.GetInt64("fee_factor"); factor > 0 {
		s.FeeFactor = factor
	}
	if timeout := viper.GetDuration("broadcast_timeout"); timeout > 0 {
		s.BroadcastTimeout = timeout
	}
	if network := viper.GetString("network"); network != "" {
		s.DefaultNetwork = network
	}
	if relay := viper.GetString("announce_relay"); relay != "" {
		s.Announcer = announce.NewAnnouncer(relay)
	}
	return s
}

// StartConfig carries everything StartService needs for one network.
type StartConfig struct {
	Network             string
	WIF                 string // decrypted controlling key
	DataDir             string
	AddPeers            []string
	Electrum            chain.ElectrumConfig
	KeyBirth            time.Time // watch creation time, before the key's first tx
	SyncTimeout         time.Duration
	BalancePollInterval time.Duration
}

// StartService synchronously establishes connectivity for one network,
// derives the funding address, registers the address watch and balance
// listener, and publishes the resulting context into the registry. It blocks
// until the chain is synced or initialization fails; on failure every
// partially started piece is torn down before the error propagates.
func (s *Service) StartService(ctx context.Context, cfg StartConfig) error {
	params, err := NetworkParams(cfg.Network)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}
	if _, exists := s.Registry.Lookup(cfg.Network); exists {
		return fmt.Errorf("%w: context already registered for %s", ErrServiceStart, cfg.Network)
	}

	privKey, err := DecodePrivateKey(params, cfg.WIF)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}
	fundingAddr, err := DeriveAddress(params, privKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}
	log.Printf("Funding address for %s: %s", cfg.Network, fundingAddr.EncodeAddress())

	source, err := chain.NewElectrumSource(ctx, cfg.Electrum, fundingAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}

	session, err := chain.Connect(chain.Config{
		DataDir:     cfg.DataDir,
		Params:      params,
		AddPeers:    cfg.AddPeers,
		SyncTimeout: cfg.SyncTimeout,
		Mempool:     source,
	})
	if err != nil {
		source.Close()
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}

	birth := cfg.KeyBirth
	if birth.IsZero() {
		birth = time.Now()
	}
	if err := session.WatchAddress(fundingAddr, birth, nil); err != nil {
		session.Close()
		source.Close()
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	go chain.WatchBalance(watchCtx, source, cfg.BalancePollInterval, func(previous, current btcutil.Amount) {
		log.Printf("Balance changed on %s: %s -> %s", cfg.Network, previous.String(), current.String())
		logger.Info("Balance changed: ", previous.String(), " -> ", current.String())
	})

	wctx := &Context{
		Network: cfg.Network,
		Params:  params,
		PrivKey: privKey,
		Address: fundingAddr,
		Session: session,
		Source:  source,
	}
	wctx.OnClose(func() error { source.Close(); return nil })
	wctx.OnClose(session.Close)
	wctx.OnClose(func() error { stopWatch(); return nil })

	if err := s.Registry.Register(wctx); err != nil {
		wctx.Close()
		return fmt.Errorf("%w: %v", ErrServiceStart, err)
	}

	log.Printf("Wallet service started for %s", cfg.Network)
	return nil
}

// StopService tears down and unregisters the context of one network.
func (s *Service) StopService(network string) error {
	wctx, ok := s.Registry.Remove(network)
	if !ok {
		return fmt.Errorf("%w: %s", ErrServiceNotReady, network)
	}
	return wctx.Close()
}

// Balance reports the current confirmed balance of a network's funding
// address.
func (s *Service) Balance(ctx context.Context, network string) (btcutil.Amount, error) {
	wctx, ok := s.Registry.Lookup(network)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrServiceNotReady, network)
	}
	return wctx.Source.CurrentBalance(ctx)
}
