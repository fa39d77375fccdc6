// Package state is the core API for the blockchain and implements all the
// business rules and processing. A State value is the node: it owns the
// ledger, the chain storage, and the mempool.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool/selector"
)

// Set of errors for the mining session state machine.
var (
	ErrAlreadyMining = errors.New("already mining")
	ErrNotMining     = errors.New("not mining")
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// BlockHandler defines a function that is called with every block this
// node mines once the block is part of the chain.
type BlockHandler func(block database.Block)

// MiningStatus represents the phase of the mining session.
type MiningStatus string

// Set of phases a mining session moves through. A session loops from
// Applying back to Assembling until it is stopped.
const (
	MiningIdle       MiningStatus = "idle"
	MiningAssembling MiningStatus = "assembling"
	MiningSearching  MiningStatus = "searching"
	MiningFound      MiningStatus = "found"
	MiningApplying   MiningStatus = "applying"
	MiningStopped    MiningStatus = "stopped"
)

// Worker interface represents the behavior required to be implemented by any
// package providing support for running the mining session.
type Worker interface {
	Shutdown()
	StartMining(beneficiaryID database.AccountID) error
	StopMining() error
	IsMining() bool
	Status() (MiningStatus, database.AccountID)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Genesis        genesis.Genesis
	Storage        database.Storage
	SelectStrategy string
	EvHandler      EventHandler
	BlockHandler   BlockHandler
}

// State manages the blockchain database.
type State struct {
	mu        sync.Mutex
	view      sync.RWMutex
	evHandler EventHandler
	onBlock   BlockHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	// Access the storage for the blockchain and replay what is there.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	strategy := cfg.SelectStrategy
	if strategy == "" {
		strategy = selector.StrategyFIFO
	}

	// Construct a mempool with the specified select strategy.
	mempool, err := mempool.NewWithStrategy(strategy, cfg.Genesis.Digest)
	if err != nil {
		db.Close()
		return nil, err
	}

	onBlock := cfg.BlockHandler
	if onBlock == nil {
		onBlock = func(database.Block) {}
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		evHandler: ev,
		onBlock:   onBlock,
		genesis:   cfg.Genesis,
		mempool:   mempool,
		db:        db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	// Make sure the database is properly closed.
	return s.db.Close()
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// StartMining starts a continuous mining session paying the rewards to the
// specified account.
func (s *State) StartMining(beneficiaryID database.AccountID) error {
	if !beneficiaryID.IsAccountID() || beneficiaryID.IsCoinbase() {
		return fmt.Errorf("miner %q: %w", beneficiaryID, database.ErrInvalidAccountID)
	}

	if s.Worker == nil {
		return errors.New("no worker registered")
	}

	return s.Worker.StartMining(beneficiaryID)
}

// StopMining stops the mining session. When this returns no more blocks
// will be added by the session.
func (s *State) StopMining() error {
	if s.Worker == nil {
		return ErrNotMining
	}

	return s.Worker.StopMining()
}
