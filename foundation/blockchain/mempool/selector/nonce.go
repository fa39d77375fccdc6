package selector

import (
	"slices"
	"strings"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// nonceSelect keeps the arrival order between accounts but makes sure the
// transactions of a single account are in nonce order. An account keeps the
// arrival slots its transactions were given.
var nonceSelect = func(transactions []database.SignedTx, howMany int) []database.SignedTx {

	/*
		arrival: Bill:2, Pavl:1, Bill:1, Edua:1, Bill:3
		slots:   Bill: [0, 2, 4]  Pavl: [1]  Edua: [3]
		result:  Bill:1, Pavl:1, Bill:2, Edua:1, Bill:3
	*/

	slots := make(map[string][]int)
	for i, tx := range transactions {
		key := strings.ToLower(string(tx.FromID))
		slots[key] = append(slots[key], i)
	}

	ordered := make([]database.SignedTx, len(transactions))
	for _, idx := range slots {
		txs := make([]database.SignedTx, len(idx))
		for i, pos := range idx {
			txs[i] = transactions[pos]
		}

		slices.SortStableFunc(txs, func(a, b database.SignedTx) int {
			switch {
			case a.Nonce < b.Nonce:
				return -1
			case a.Nonce > b.Nonce:
				return 1
			}
			return 0
		})

		for i, pos := range idx {
			ordered[pos] = txs[i]
		}
	}

	return ordered[:limit(howMany, len(ordered))]
}
