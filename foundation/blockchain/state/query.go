package state

import (
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// Status is a consistent view of the chain for reporting.
type Status struct {
	Height        uint64
	LatestHash    string
	PendingCount  int
	TotalSupply   uint64
	Difficulty    uint16
	MiningReward  uint64
	TransPerBlock uint16
}

// QueryStatus returns the height, supply, and latest hash from the same
// ledger snapshot, plus the size of the mempool that goes with it.
func (s *State) QueryStatus() Status {
	s.view.RLock()
	defer s.view.RUnlock()

	snap := s.db.Snapshot()

	return Status{
		Height:        snap.Height(),
		LatestHash:    snap.LatestBlock.Hash(),
		PendingCount:  s.mempool.Count(),
		TotalSupply:   snap.TotalSupply,
		Difficulty:    s.genesis.Difficulty,
		MiningReward:  s.genesis.MiningReward,
		TransPerBlock: s.genesis.TransPerBlock,
	}
}

// QueryBalance returns the confirmed balance for the account.
func (s *State) QueryBalance(accountID database.AccountID) uint64 {
	return s.db.Balance(accountID)
}

// QueryAccount returns the confirmed information for the account.
func (s *State) QueryAccount(accountID database.AccountID) database.Account {
	return s.db.Account(accountID)
}

// QueryAccounts returns every account the chain knows about.
func (s *State) QueryAccounts() []database.Account {
	return s.db.Snapshot().Accounts.Sorted()
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	s.view.RLock()
	defer s.view.RUnlock()

	return s.mempool.Count()
}

// QueryMempool returns the pending transactions in the order they would be
// selected for the next block.
func (s *State) QueryMempool() []database.SignedTx {
	s.view.RLock()
	defer s.view.RUnlock()

	var trans []database.SignedTx
	for tx := range s.mempool.PickBest(-1) {
		trans = append(trans, tx)
	}
	return trans
}

// QueryBlocks returns up to limit blocks starting at the latest block and
// walking back toward genesis. The blocks are read from one snapshot so each
// block links to the one that follows it in the list.
func (s *State) QueryBlocks(limit int) []database.Block {
	if limit <= 0 {
		return nil
	}

	snap := s.db.Snapshot()

	out := []database.Block{snap.LatestBlock}
	for num := snap.Height(); num > 0 && len(out) < limit; num-- {
		block, err := s.db.GetBlock(num - 1)
		if err != nil {
			s.evHandler("state: QueryBlocks: getblock: ERROR: %s", err)
			break
		}

		if out[len(out)-1].Header.PrevBlockHash != block.Hash() {
			s.evHandler("state: QueryBlocks: ERROR: blk[%d] does not link to blk[%d]", num, num-1)
			break
		}

		out = append(out, block)
	}

	return out
}

// QueryBlocksByAccount returns the set of blocks with a transaction to or
// from the account, oldest first.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) ([]database.Block, error) {
	var out []database.Block

	for block, err := range s.db.ForEach() {
		if err != nil {
			return nil, err
		}

		for _, tx := range block.Values() {
			if tx.FromID.Equal(accountID) || tx.ToID.Equal(accountID) {
				out = append(out, block)
				break
			}
		}
	}

	return out, nil
}

// IsMining reports if a mining session is active.
func (s *State) IsMining() bool {
	if s.Worker == nil {
		return false
	}
	return s.Worker.IsMining()
}

// MiningStatus returns the phase of the mining session and the account
// being paid the rewards.
func (s *State) MiningStatus() (MiningStatus, database.AccountID) {
	if s.Worker == nil {
		return MiningIdle, ""
	}
	return s.Worker.Status()
}
