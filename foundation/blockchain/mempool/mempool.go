// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"iter"
	"sync"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool/selector"
)

// ErrDuplicateTransaction is returned when a transaction with the same
// identity is already in the pool.
var ErrDuplicateTransaction = errors.New("duplicate transaction")

// Mempool represents a cache of pending transactions keyed by transaction
// identity. The arrival order is kept so selection can be first in, first out.
type Mempool struct {
	mu       sync.RWMutex
	pool     map[string]database.SignedTx
	order    []string
	digest   string
	selectFn selector.Func
}

// New constructs a new mempool using the default select strategy.
func New(digest string) (*Mempool, error) {
	return NewWithStrategy(selector.StrategyFIFO, digest)
}

// NewWithStrategy constructs a new mempool with specified select strategy.
// The digest is used to calculate the identity of each transaction.
func NewWithStrategy(strategy string, digest string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]database.SignedTx),
		digest:   digest,
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// ID returns the identity the pool uses for the transaction.
func (mp *Mempool) ID(tx database.SignedTx) string {
	return tx.ID(mp.digest)
}

// Upsert adds a transaction to the pool and returns its identity. A
// transaction that is already in the pool is rejected.
func (mp *Mempool) Upsert(tx database.SignedTx) (string, error) {
	id := mp.ID(tx)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.pool[id]; exists {
		return id, ErrDuplicateTransaction
	}

	mp.pool[id] = tx
	mp.order = append(mp.order, id)

	return id, nil
}

// Exists reports if a transaction with the identity is in the pool.
func (mp *Mempool) Exists(id string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.pool[id]
	return exists
}

// Delete removes the transactions with the specified identities from the
// pool. Identities that are not in the pool are ignored.
func (mp *Mempool) Delete(ids ...string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed bool
	for _, id := range ids {
		if _, exists := mp.pool[id]; exists {
			delete(mp.pool, id)
			removed = true
		}
	}

	if !removed {
		return
	}

	order := mp.order[:0]
	for _, id := range mp.order {
		if _, exists := mp.pool[id]; exists {
			order = append(order, id)
		}
	}
	mp.order = order
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.SignedTx)
	mp.order = nil
}

// Copy returns the pending transactions in arrival order.
func (mp *Mempool) Copy() []database.SignedTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.SignedTx, 0, len(mp.order))
	for _, id := range mp.order {
		txs = append(txs, mp.pool[id])
	}

	return txs
}

// PendingValue returns the sum of the pending transaction values sent from
// the specified account.
func (mp *Mempool) PendingValue(from database.AccountID) uint64 {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var total uint64
	for _, tx := range mp.pool {
		if tx.FromID.Equal(from) {
			total += tx.Value
		}
	}

	return total
}

// HighestNonce returns the largest nonce the account has pending.
func (mp *Mempool) HighestNonce(from database.AccountID) (uint64, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	var highest uint64
	var exists bool
	for _, tx := range mp.pool {
		if tx.FromID.Equal(from) && (!exists || tx.Nonce > highest) {
			highest = tx.Nonce
			exists = true
		}
	}

	return highest, exists
}

// HasNonce reports if the account already has a pending transaction with
// the specified nonce.
func (mp *Mempool) HasNonce(from database.AccountID, nonce uint64) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	for _, tx := range mp.pool {
		if tx.Nonce == nonce && tx.FromID.Equal(from) {
			return true
		}
	}

	return false
}

// PickBest uses the configured select strategy to return the next set of
// transactions for the next block. Nothing is removed from the pool. The
// pool is read when the sequence is iterated, so iterating again later
// reflects the pool at that time. Receiving -1 for howMany selects every
// pending transaction.
func (mp *Mempool) PickBest(howMany int) iter.Seq[database.SignedTx] {
	return func(yield func(database.SignedTx) bool) {
		for _, tx := range mp.selectFn(mp.Copy(), howMany) {
			if !yield(tx) {
				return
			}
		}
	}
}
