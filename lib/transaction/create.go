package transaction

import (
	"fmt"
	"log"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

// CreateMessageTransaction builds and signs a transaction that anchors payload
// on chain. The first output is a null-data script carrying the payload with
// zero value; the second returns everything minus the fee to the funding
// address. The entire unspent snapshot is spent, in snapshot order, and every
// input is signed SigHashAll with the controlling key. Signing is
// deterministic (RFC 6979), so the returned transaction's hash is final
// before broadcast.
func CreateMessageTransaction(payload []byte, utxos []UnspentOutput, fundingAddr btcutil.Address, privKey *btcec.PrivateKey, feeFactor int64) (*wire.MsgTx, btcutil.Amount, error) {
	if len(payload) == 0 {
		return nil, 0, fmt.Errorf("empty payload")
	}
	if len(payload) > txscript.MaxDataCarrierSize {
		return nil, 0, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(payload), txscript.MaxDataCarrierSize)
	}
	if len(utxos) == 0 {
		return nil, 0, ErrNoUnspentOutputs
	}

	var totalIn int64
	for _, utxo := range utxos {
		totalIn += utxo.Value
	}

	fee := EstimateFee(len(payload), len(utxos), feeFactor)
	changeAmount := totalIn - fee
	if changeAmount < 0 {
		log.Printf("Insufficient funds: total input %d satoshis, required fee %d satoshis", totalIn, fee)
		return nil, 0, fmt.Errorf("%w: have %d satoshis, fee is %d satoshis", ErrInsufficientFunds, totalIn, fee)
	}

	tx := wire.NewMsgTx(wire.TxVersion)

	// Output order is fixed: data first, then change.
	dataScript, err := txscript.NullDataScript(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create null-data script: %v", err)
	}
	tx.AddTxOut(wire.NewTxOut(0, dataScript))

	changeScript, err := txscript.PayToAddrScript(fundingAddr)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create change script: %v", err)
	}
	changeOut := wire.NewTxOut(changeAmount, changeScript)
	if txrules.IsDustOutput(changeOut, txrules.DefaultRelayFeePerKb) {
		log.Printf("Change output of %d satoshis is below the dust threshold; relays may reject it", changeAmount)
	}
	tx.AddTxOut(changeOut)

	for _, utxo := range utxos {
		prevOut := wire.NewOutPoint(&utxo.TxID, utxo.Vout)
		tx.AddTxIn(wire.NewTxIn(prevOut, nil, nil))
	}

	// Inputs are signed only after every input and output is in place,
	// since SigHashAll commits to all of them.
	for i, utxo := range utxos {
		sigScript, err := txscript.SignatureScript(tx, i, utxo.PkScript, txscript.SigHashAll, privKey, true)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to sign input %d: %v", i, err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	for i, utxo := range utxos {
		valid, err := verifySignature(tx, i, utxo.PkScript, utxo.Value)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to verify input %d: %v", i, err)
		}
		if !valid {
			return nil, 0, fmt.Errorf("signature verification failed for input %d", i)
		}
	}

	log.Printf("Message transaction assembled. TxID: %s, inputs: %d, total in: %d satoshis, fee: %d satoshis, change: %d satoshis",
		tx.TxHash().String(), len(tx.TxIn), totalIn, fee, changeAmount)

	return tx, btcutil.Amount(fee), nil
}
