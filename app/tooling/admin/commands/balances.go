// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// Balances prints the confirmed balances, optionally for one account.
func Balances(w io.Writer, args []string, db *database.Database) error {
	snap := db.Snapshot()

	fmt.Fprintf(w, "Height: %d  LatestBlockHash: %s  TotalSupply: %d\n\n", snap.Height(), snap.LatestBlock.Hash(), snap.TotalSupply)

	if len(args) == 1 {
		accountID, err := database.ToAccountID(args[0])
		if err != nil {
			return err
		}
		act := snap.Accounts.Get(accountID)
		fmt.Fprintf(w, "Account: %s  Balance: %d  Nonce: %d\n", accountID, act.Balance, act.Nonce)
		return nil
	}

	for _, act := range snap.Accounts.Sorted() {
		fmt.Fprintf(w, "Account: %s  Balance: %d  Nonce: %d\n", act.AccountID, act.Balance, act.Nonce)
	}

	return nil
}
