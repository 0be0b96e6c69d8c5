package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("regtest")
	assert.False(t, ok)

	require.NoError(t, r.Register(&Context{Network: "regtest"}))
	wctx, ok := r.Lookup("regtest")
	require.True(t, ok)
	assert.Equal(t, "regtest", wctx.Network)

	// Exactly one context per network.
	assert.Error(t, r.Register(&Context{Network: "regtest"}))
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Context{Network: "testnet"}))

	_, ok := r.Remove("testnet")
	assert.True(t, ok)
	_, ok = r.Lookup("testnet")
	assert.False(t, ok)
	_, ok = r.Remove("testnet")
	assert.False(t, ok)
}

func TestRegistryCloseRunsTeardown(t *testing.T) {
	r := NewRegistry()

	closed := 0
	wctx := &Context{Network: "regtest"}
	wctx.OnClose(func() error { closed++; return nil })
	require.NoError(t, r.Register(wctx))

	require.NoError(t, r.Close())
	assert.Equal(t, 1, closed)
	assert.Empty(t, r.Networks())
}

func TestContextCloseOrder(t *testing.T) {
	wctx := &Context{Network: "regtest"}

	var order []string
	wctx.OnClose(func() error { order = append(order, "first"); return nil })
	wctx.OnClose(func() error { order = append(order, "second"); return nil })

	require.NoError(t, wctx.Close())
	// Teardown runs in reverse registration order.
	assert.Equal(t, []string{"second", "first"}, order)
}
