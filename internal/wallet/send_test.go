package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainmark-io/chainmark/lib/transaction"
)

// fakeLedger hands out the remaining unspent set and removes outputs as they
// are spent, mimicking how spending invalidates earlier snapshots.
type fakeLedger struct {
	mu    sync.Mutex
	utxos []transaction.UnspentOutput
}

func (l *fakeLedger) CurrentUnspents(ctx context.Context) ([]transaction.UnspentOutput, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	snapshot := make([]transaction.UnspentOutput, len(l.utxos))
	copy(snapshot, l.utxos)
	return snapshot, nil
}

func (l *fakeLedger) CurrentBalance(ctx context.Context) (btcutil.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for _, u := range l.utxos {
		total += u.Value
	}
	return btcutil.Amount(total), nil
}

func (l *fakeLedger) spend(tx *wire.MsgTx) {
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.utxos[:0]
	for _, u := range l.utxos {
		spent := false
		for _, in := range tx.TxIn {
			if in.PreviousOutPoint.Hash == u.TxID && in.PreviousOutPoint.Index == u.Vout {
				spent = true
				break
			}
		}
		if !spent {
			remaining = append(remaining, u)
		}
	}
	l.utxos = remaining
}

// fakePeers records every broadcast transaction and confirms it immediately.
type fakePeers struct {
	mu     sync.Mutex
	ledger *fakeLedger
	sent   []*wire.MsgTx
}

func (p *fakePeers) Broadcast(ctx context.Context, tx *wire.MsgTx) (<-chan float64, error) {
	p.mu.Lock()
	p.sent = append(p.sent, tx)
	p.mu.Unlock()
	if p.ledger != nil {
		p.ledger.spend(tx)
	}
	ch := make(chan float64, 1)
	ch <- 1.0
	return ch, nil
}

func (p *fakePeers) broadcastCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func newTestContext(t *testing.T, network string, values ...int64) (*Context, *fakeLedger, *fakePeers) {
	t.Helper()

	params, err := NetworkParams(network)
	require.NoError(t, err)

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	addr, err := DeriveAddress(params, key)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	ledger := &fakeLedger{}
	for i, v := range values {
		ledger.utxos = append(ledger.utxos, transaction.UnspentOutput{
			TxID:     chainhash.HashH([]byte{byte(i), 0xbe, 0xef}),
			Vout:     uint32(i),
			Value:    v,
			PkScript: pkScript,
		})
	}
	peers := &fakePeers{ledger: ledger}

	return &Context{
		Network: network,
		Params:  params,
		PrivKey: key,
		Address: addr,
		Session: peers,
		Source:  ledger,
	}, ledger, peers
}

func newTestService(t *testing.T, wctx *Context) *Service {
	t.Helper()
	registry := NewRegistry()
	if wctx != nil {
		require.NoError(t, registry.Register(wctx))
	}
	s := NewService(registry)
	s.BroadcastTimeout = time.Second
	s.DefaultNetwork = "regtest"
	return s
}

func TestSendAnchorsMessage(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 50000, 30000)
	s := newTestService(t, wctx)

	var progressSeen []float64
	txid, err := s.Send(context.Background(), []byte("proof of existence"), "regtest", func(_ chainhash.Hash, fraction float64) {
		progressSeen = append(progressSeen, fraction)
	})
	require.NoError(t, err)
	assert.NotEqual(t, chainhash.Hash{}, txid)
	assert.Equal(t, []float64{1.0}, progressSeen)

	require.Equal(t, 1, peers.broadcastCount())
	tx := peers.sent[0]
	assert.Equal(t, txid, tx.TxHash())
	assert.Equal(t, txscript.NullDataTy, txscript.GetScriptClass(tx.TxOut[0].PkScript))
}

func TestSendEmptyMessage(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 50000)
	s := newTestService(t, wctx)

	_, err := s.Send(context.Background(), nil, "regtest", nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Zero(t, peers.broadcastCount())
}

func TestSendUnknownNetwork(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 50000)
	s := newTestService(t, wctx)

	_, err := s.Send(context.Background(), []byte("x"), "litecoin", nil)
	assert.ErrorIs(t, err, ErrInvalidArguments)
	assert.Zero(t, peers.broadcastCount())
}

func TestSendUnregisteredNetwork(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 50000)
	s := newTestService(t, wctx)

	_, err := s.Send(context.Background(), []byte("x"), "testnet", nil)
	assert.ErrorIs(t, err, ErrServiceNotReady)
	assert.Zero(t, peers.broadcastCount())
}

func TestSendInsufficientFunds(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 100)
	s := newTestService(t, wctx)

	_, err := s.Send(context.Background(), []byte("x"), "regtest", nil)
	assert.ErrorIs(t, err, transaction.ErrInsufficientFunds)
	assert.Zero(t, peers.broadcastCount())
}

func TestSendIfReady(t *testing.T) {
	s := newTestService(t, nil)
	_, err := s.SendIfReady(context.Background(), []byte("x"), nil)
	assert.ErrorIs(t, err, ErrServiceNotReady)

	wctx, _, _ := newTestContext(t, "regtest", 50000)
	require.NoError(t, s.Registry.Register(wctx))
	_, err = s.SendIfReady(context.Background(), []byte("x"), nil)
	assert.NoError(t, err)
}

// Two concurrent sends must never spend from the same snapshot: the first
// takes the whole unspent set, the second finds nothing left.
func TestConcurrentSendsNeverDoubleSpend(t *testing.T) {
	wctx, _, peers := newTestContext(t, "regtest", 40000, 25000)
	s := newTestService(t, wctx)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Send(context.Background(), []byte("race"), "regtest", nil)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, peers.broadcastCount())

	var succeeded, starved int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			starved++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, starved)

	// Every spent outpoint appears in exactly one broadcast transaction.
	seen := make(map[wire.OutPoint]int)
	for _, tx := range peers.sent {
		for _, in := range tx.TxIn {
			seen[in.PreviousOutPoint]++
		}
	}
	for outpoint, count := range seen {
		assert.Equal(t, 1, count, "outpoint %v spent more than once", outpoint)
	}
}

func TestSendTimeoutOutcome(t *testing.T) {
	wctx, _, _ := newTestContext(t, "regtest", 50000)
	wctx.Session = &stallingPeers{}
	s := newTestService(t, wctx)
	s.BroadcastTimeout = 50 * time.Millisecond

	start := time.Now()
	txid, err := s.Send(context.Background(), []byte("x"), "regtest", nil)
	assert.ErrorIs(t, err, transaction.ErrBroadcastTimeout)
	assert.NotEqual(t, chainhash.Hash{}, txid)
	assert.Less(t, time.Since(start), time.Second)
}

// stallingPeers accepts the submission but never confirms propagation.
type stallingPeers struct{}

func (p *stallingPeers) Broadcast(ctx context.Context, tx *wire.MsgTx) (<-chan float64, error) {
	ch := make(chan float64, 1)
	ch <- 0.3
	return ch, nil
}

func TestNetworkParams(t *testing.T) {
	for name, want := range map[string]*chaincfg.Params{
		"mainnet": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"regtest": &chaincfg.RegressionNetParams,
	} {
		params, err := NetworkParams(name)
		require.NoError(t, err)
		assert.Equal(t, want, params)
	}

	_, err := NetworkParams("simnet")
	assert.Error(t, err)
}
