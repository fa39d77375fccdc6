package state

import (
	"context"
	"time"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// MineNewBlock assembles a candidate block from the mempool, solves the POW
// puzzle, and commits the block. The search holds no locks. The commit runs
// under the state lock and is skipped if the context was cancelled, so a
// cancelled session never adds a block. Each phase is reported to track.
func (s *State) MineNewBlock(ctx context.Context, beneficiaryID database.AccountID, track func(MiningStatus)) (database.Block, error) {
	if track == nil {
		track = func(MiningStatus) {}
	}

	track(MiningAssembling)
	s.evHandler("state: MineNewBlock: MINING: assemble candidate")

	snap := s.db.Snapshot()
	trans := s.assemble(snap)

	track(MiningSearching)
	s.evHandler("state: MineNewBlock: MINING: perform POW: blk[%d]: txs[%d]", snap.Height()+1, len(trans))

	args := database.POWArgs{
		ChainID:       s.genesis.ChainID,
		BeneficiaryID: beneficiaryID,
		Difficulty:    s.genesis.Difficulty,
		MiningReward:  s.genesis.MiningReward,
		Digest:        s.genesis.Digest,
		PrevBlock:     snap.LatestBlock,
		TimeStamp:     uint64(time.Now().UTC().UnixMilli()),
		Trans:         trans,
		EvHandler:     s.evHandler,
	}

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, args)
	if err != nil {
		return database.Block{}, err
	}

	track(MiningFound)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	track(MiningApplying)
	s.evHandler("state: MineNewBlock: MINING: apply blk[%d]", block.Header.Number)

	trans = block.Values()[1:]
	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = s.mempool.ID(tx)
	}

	// The confirmed transactions leave the mempool in the same step the block
	// is published, so no reader sees the block with them still pending.
	var viewLocked bool
	commit := func() {
		s.view.Lock()
		viewLocked = true
		s.mempool.Delete(ids...)
	}

	err = s.db.ApplyBlockAndCommit(block, s.evHandler, commit)
	if viewLocked {
		s.view.Unlock()
	}

	if err != nil {
		s.evHandler("state: MineNewBlock: MINING: ERROR: blk[%d] rejected: %s", block.Header.Number, err)
		return database.Block{}, err
	}

	s.evHandler("state: MineNewBlock: MINING: removed confirmed transactions from mempool: txs[%d]", len(ids))
	s.onBlock(block)

	return block, nil
}

// =============================================================================

// assemble selects the transactions for the next block. Each transaction is
// checked against a scratch copy of the accounts with the earlier selections
// applied. Transactions that fail are dropped from the mempool.
func (s *State) assemble(snap *database.Snapshot) []database.SignedTx {
	scratch := snap.Accounts.Copy()
	limit := int(s.genesis.TransPerBlock)

	var trans []database.SignedTx
	var dropped []string

	for tx := range s.mempool.PickBest(-1) {
		if len(trans) == limit {
			break
		}

		if err := scratch.ApplyTransaction(s.genesis.ChainID, tx); err != nil {
			s.evHandler("state: assemble: DROPPED: tx[%s]: %s", tx, err)
			dropped = append(dropped, s.mempool.ID(tx))
			continue
		}

		trans = append(trans, tx)
	}

	if len(dropped) > 0 {
		s.mempool.Delete(dropped...)
	}

	return trans
}
