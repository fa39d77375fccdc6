package commands

import (
	"fmt"
	"io"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// Verify walks the chain checking every block links to its parent and that
// the replayed supply matches the rewards paid.
func Verify(w io.Writer, db *database.Database) error {
	snap := db.Snapshot()
	prev := db.Genesis()

	var rewards uint64
	for block, err := range db.ForEach() {
		if err != nil {
			return err
		}

		if err := block.ValidateBlock(prev, nil); err != nil {
			return fmt.Errorf("blk[%d]: %w", block.Header.Number, err)
		}

		rewards += block.Header.MiningReward
		prev = block
	}

	if prev.Hash() != snap.LatestBlock.Hash() {
		return fmt.Errorf("%w: walked to %s, latest is %s", database.ErrChainBroken, prev.Hash(), snap.LatestBlock.Hash())
	}

	if rewards != snap.TotalSupply || snap.Accounts.Sum() != snap.TotalSupply {
		return fmt.Errorf("%w: rewards %d, supply %d, balances %d", database.ErrLedgerInconsistency, rewards, snap.TotalSupply, snap.Accounts.Sum())
	}

	fmt.Fprintf(w, "Verified %d blocks, total supply %d\n", snap.Height(), snap.TotalSupply)

	return nil
}
