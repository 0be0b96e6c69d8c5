package transaction

// Approximate byte costs used for fee estimation. 148 covers one signed
// P2PKH input, 34 the change output, 20 the fixed overhead of the data
// output plus transaction framing.
const (
	inputByteCost      = 148
	changeOutputCost   = 34
	dataOutputOverhead = 20
)

// EstimateFee returns the fee in satoshis for a message transaction with the
// given payload size and input count. feeFactor is a satoshis-per-byte
// multiplier, 1 in the default configuration. Callers guarantee
// messageSize >= 0 and inputCount >= 0.
func EstimateFee(messageSize, inputCount int, feeFactor int64) int64 {
	return feeFactor * int64(messageSize+inputCount*inputByteCost+changeOutputCost+dataOutputOverhead)
}
