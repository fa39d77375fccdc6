package selector

import "github.com/wtfcosmos/blockchain/foundation/blockchain/database"

// fifoSelect returns transactions in the order they arrived.
var fifoSelect = func(transactions []database.SignedTx, howMany int) []database.SignedTx {
	n := limit(howMany, len(transactions))

	final := make([]database.SignedTx, n)
	copy(final, transactions[:n])

	return final
}
