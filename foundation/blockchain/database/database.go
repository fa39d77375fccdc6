// Package database handles all the lower level support for maintaining the
// blockchain in storage and maintaining an in memory database of account
// information.
package database

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. GetBlock
// must return an error wrapping ErrNotFound for a block that doesn't exist.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	Close() error
	Reset() error
}

// Snapshot is a consistent view of the chain. A block is never visible
// without its effects on the accounts and the supply, and vice versa.
type Snapshot struct {
	LatestBlock Block
	Accounts    Accounts
	TotalSupply uint64
}

// Height returns the number of the latest block. The genesis block is 0.
func (s *Snapshot) Height() uint64 {
	return s.LatestBlock.Header.Number
}

// =============================================================================

// Database manages data related to accounts who have transacted on the blockchain.
type Database struct {
	mu       sync.Mutex
	genesis  genesis.Genesis
	genBlock Block
	snapshot atomic.Pointer[Snapshot]
	storage  Storage
}

// New constructs a new database and replays every block found in storage
// on top of the genesis block.
func New(gen genesis.Genesis, storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	genBlock, err := GenesisBlock(gen)
	if err != nil {
		return nil, err
	}

	db := Database{
		genesis:  gen,
		genBlock: genBlock,
		storage:  storage,
	}
	db.snapshot.Store(&Snapshot{LatestBlock: genBlock, Accounts: Accounts{}})

	// Read all the blocks from storage.
	for block, err := range db.ForEach() {
		if err != nil {
			return nil, err
		}

		evHandler("database: New: replay: blk[%d]: hash[%s]", block.Header.Number, block.Hash())

		snap, err := db.next(block, evHandler)
		if err != nil {
			return nil, fmt.Errorf("replay blk[%d]: %w", block.Header.Number, err)
		}
		db.snapshot.Store(snap)
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Reset re-initializes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.storage.Reset(); err != nil {
		return err
	}

	db.snapshot.Store(&Snapshot{LatestBlock: db.genBlock, Accounts: Accounts{}})

	return nil
}

// Snapshot returns the latest published view of the chain. The value must
// be treated as read only.
func (db *Database) Snapshot() *Snapshot {
	return db.snapshot.Load()
}

// Balance returns the confirmed balance for the account. Unknown accounts
// have a balance of 0.
func (db *Database) Balance(accountID AccountID) uint64 {
	return db.snapshot.Load().Accounts.Get(accountID).Balance
}

// Account returns the confirmed information for the account.
func (db *Database) Account(accountID AccountID) Account {
	return db.snapshot.Load().Accounts.Get(accountID)
}

// TotalSupply returns the sum of all mining rewards issued.
func (db *Database) TotalSupply() uint64 {
	return db.snapshot.Load().TotalSupply
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	return db.snapshot.Load().LatestBlock
}

// Copy makes a copy of the current accounts in the database.
func (db *Database) Copy() Accounts {
	return db.snapshot.Load().Accounts.Copy()
}

// Genesis returns the genesis block.
func (db *Database) Genesis() Block {
	return db.genBlock
}

// ApplyBlock validates the block against the latest block, applies its
// transactions in order to a copy of the accounts, writes the block to
// storage, and then publishes the new state. Nothing changes on failure.
func (db *Database) ApplyBlock(block Block, evHandler func(v string, args ...any)) error {
	return db.ApplyBlockAndCommit(block, evHandler, nil)
}

// ApplyBlockAndCommit works like ApplyBlock. The commit function, when not
// nil, runs after the block is written and immediately before the new state
// is published. It is not called if the block is rejected.
func (db *Database) ApplyBlockAndCommit(block Block, evHandler func(v string, args ...any), commit func()) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snap, err := db.next(block, evHandler)
	if err != nil {
		return err
	}

	if err := db.storage.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("write blk[%d]: %w", block.Header.Number, err)
	}

	if commit != nil {
		commit()
	}

	db.snapshot.Store(snap)

	return nil
}

// GetBlock searches the blockchain storage to locate and return the
// contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	if num == 0 {
		return db.genBlock, nil
	}

	blockData, err := db.storage.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// ForEach returns an iterator to walk through all the blocks in storage
// starting with block number 1.
func (db *Database) ForEach() iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for num := uint64(1); ; num++ {
			block, err := db.GetBlock(num)
			if errors.Is(err, ErrNotFound) {
				return
			}

			if !yield(block, err) || err != nil {
				return
			}
		}
	}
}

// =============================================================================

// next calculates the state that follows the current snapshot once the block
// is applied. The current snapshot is not modified.
func (db *Database) next(block Block, evHandler func(v string, args ...any)) (*Snapshot, error) {
	cur := db.snapshot.Load()

	if err := block.ValidateBlock(cur.LatestBlock, evHandler); err != nil {
		return nil, err
	}

	if block.Header.MiningReward != db.genesis.MiningReward {
		return nil, fmt.Errorf("%w: block reward %d, chain reward %d", ErrChainBroken, block.Header.MiningReward, db.genesis.MiningReward)
	}

	accounts := cur.Accounts.Copy()

	for i, tx := range block.Values() {
		if i == 0 {
			accounts.ApplyMiningReward(block.Header.BeneficiaryID, block.Header.MiningReward)
			continue
		}

		if err := accounts.ApplyTransaction(db.genesis.ChainID, tx); err != nil {
			return nil, fmt.Errorf("%w: blk[%d]: tx[%d]: %w", ErrLedgerInconsistency, block.Header.Number, i, err)
		}
	}

	snap := Snapshot{
		LatestBlock: block,
		Accounts:    accounts,
		TotalSupply: cur.TotalSupply + block.Header.MiningReward,
	}

	return &snap, nil
}
