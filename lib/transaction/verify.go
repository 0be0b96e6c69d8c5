package transaction

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// verifySignature executes the locking script of one input against the
// assembled transaction before it leaves the process.
func verifySignature(tx *wire.MsgTx, index int, scriptPubKey []byte, amount int64) (bool, error) {
	flags := txscript.StandardVerifyFlags

	prevOutputs := txscript.NewCannedPrevOutputFetcher(scriptPubKey, amount)

	engine, err := txscript.NewEngine(scriptPubKey, tx, index, flags, nil, nil, amount, prevOutputs)
	if err != nil {
		return false, fmt.Errorf("failed to create script engine: %v", err)
	}
	if err := engine.Execute(); err != nil {
		return false, fmt.Errorf("failed to execute script: %v", err)
	}
	return true, nil
}
