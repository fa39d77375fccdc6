package commands

import (
	"fmt"
	"io"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// Transactions prints the confirmed transactions, optionally only the ones
// to or from an account.
func Transactions(w io.Writer, args []string, db *database.Database) error {
	var accountID database.AccountID
	if len(args) == 1 {
		id, err := database.ToAccountID(args[0])
		if err != nil {
			return err
		}
		accountID = id
	}

	digest := db.Genesis().Header.Digest

	for block, err := range db.ForEach() {
		if err != nil {
			return err
		}

		for _, tx := range block.Values() {
			if accountID != "" && !tx.FromID.Equal(accountID) && !tx.ToID.Equal(accountID) {
				continue
			}

			fmt.Fprintf(w, "Block: %d  ID: %s  From: %s  To: %s  Nonce: %d  Value: %d\n",
				block.Header.Number, tx.ID(digest), tx.FromID, tx.ToID, tx.Nonce, tx.Value)
		}
	}

	return nil
}
