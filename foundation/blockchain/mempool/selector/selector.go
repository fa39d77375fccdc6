// Package selector provides different transaction selecting algorithms.
package selector

import (
	"fmt"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// List of different select strategies.
const (
	StrategyFIFO  = "fifo"
	StrategyNonce = "nonce"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyFIFO:  fifoSelect,
	StrategyNonce: nonceSelect,
}

// Func defines a function that takes the pending transactions in arrival
// order and selects howMany of them in an order based on the functions
// strategy. Receiving -1 for howMany must return all the transactions in the
// strategies ordering. The input slice must not be modified.
type Func func(transactions []database.SignedTx, howMany int) []database.SignedTx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// limit returns the number of transactions to select.
func limit(howMany int, available int) int {
	if howMany < 0 || howMany > available {
		return available
	}
	return howMany
}
