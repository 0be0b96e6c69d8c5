package wallet

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/chainmark-io/chainmark/internal/chain"
	"github.com/chainmark-io/chainmark/lib/transaction"
)

// networks maps the known network identifiers to their chain parameters.
var networks = map[string]*chaincfg.Params{
	"mainnet": &chaincfg.MainNetParams,
	"testnet": &chaincfg.TestNet3Params,
	"regtest": &chaincfg.RegressionNetParams,
}

// NetworkParams resolves a network identifier to chain parameters.
func NetworkParams(name string) (*chaincfg.Params, error) {
	params, ok := networks[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q", name)
	}
	return params, nil
}

// Context bundles everything one network needs to send: the controlling key,
// the derived funding address, the connected peer session, and the
// unspent-output source. One context exists per network, created at service
// start and destroyed at shutdown.
type Context struct {
	Network string
	Params  *chaincfg.Params
	PrivKey *btcec.PrivateKey
	Address btcutil.Address
	Session transaction.PeerSession
	Source  chain.UnspentSource

	// sendMu serializes send attempts on this network: it is held from
	// unspent snapshotting until the broadcast outcome resolves, so two
	// concurrent sends can never spend the same snapshot.
	sendMu sync.Mutex

	closers []func() error
}

// OnClose registers a teardown step run by Close, last-registered first.
func (c *Context) OnClose(fn func() error) {
	c.closers = append(c.closers, fn)
}

// Close tears down the context's session and watchers.
func (c *Context) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
