package transaction

import "errors"

var (
	// ErrInsufficientFunds means the unspent set cannot cover the computed
	// fee, so the change output would go negative.
	ErrInsufficientFunds = errors.New("insufficient funds to cover fee")

	// ErrPayloadTooLarge means the message does not fit a standard
	// null-data output.
	ErrPayloadTooLarge = errors.New("message exceeds null-data carrier size")

	// ErrNoUnspentOutputs means the funding address has nothing to spend.
	ErrNoUnspentOutputs = errors.New("no unspent outputs available")

	// ErrBroadcastTimeout means no terminal propagation confirmation
	// arrived within the configured bound. The transaction was not
	// retracted and may still confirm later.
	ErrBroadcastTimeout = errors.New("broadcast timed out")
)
