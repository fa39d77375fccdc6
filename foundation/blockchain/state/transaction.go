package state

import (
	"fmt"
	"time"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

// UpsertWalletTransaction accepts a signed transaction from a wallet for
// inclusion and returns the transaction id.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.upsert(signedTx)
}

// SubmitTransfer signs a transfer with the sender's private key on behalf of
// the caller and submits it. The nonce is assigned by the node. The from
// account is optional, if provided it must match the private key.
func (s *State) SubmitTransfer(privateKey string, fromID database.AccountID, toID database.AccountID, value uint64) (database.SignedTx, string, error) {
	pk, err := wallet.ParsePrivateKey(privateKey)
	if err != nil {
		return database.SignedTx{}, "", err
	}

	signer := wallet.DeriveAddress(pk.PublicKey)
	if fromID != "" && !fromID.Equal(signer) {
		return database.SignedTx{}, "", fmt.Errorf("%w: private key does not belong to %s", database.ErrInvalidTransaction, fromID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nonce := s.db.Account(signer).Nonce
	if pending, exists := s.mempool.HighestNonce(signer); exists && pending > nonce {
		nonce = pending
	}

	tx, err := database.NewTx(s.genesis.ChainID, nonce+1, signer, toID, value, uint64(time.Now().UTC().UnixMilli()))
	if err != nil {
		return database.SignedTx{}, "", err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.SignedTx{}, "", err
	}

	id, err := s.upsert(signedTx)
	if err != nil {
		return database.SignedTx{}, "", err
	}

	return signedTx, id, nil
}

// =============================================================================

// upsert validates the transaction and adds it to the mempool. The caller
// must hold the state lock.
func (s *State) upsert(signedTx database.SignedTx) (string, error) {
	if err := s.validateTransaction(signedTx); err != nil {
		s.evHandler("state: upsert: REJECTED: tx[%s]: %s", signedTx, err)
		return "", err
	}

	id, err := s.mempool.Upsert(signedTx)
	if err != nil {
		return "", err
	}

	s.evHandler("state: upsert: ACCEPTED: tx[%s]: id[%s]: pending[%d]", signedTx, id, s.mempool.Count())

	return id, nil
}

// validateTransaction takes the signed transaction and validates it has
// a proper signature and can be paid for by the confirmed balance of the
// sender, counting what the sender already has pending.
func (s *State) validateTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return err
	}

	if s.mempool.Exists(s.mempool.ID(signedTx)) {
		return mempool.ErrDuplicateTransaction
	}

	from := s.db.Account(signedTx.FromID)

	if signedTx.Nonce <= from.Nonce {
		return fmt.Errorf("%w: nonce too small, current %d, provided %d", database.ErrInvalidTransaction, from.Nonce, signedTx.Nonce)
	}

	if s.mempool.HasNonce(signedTx.FromID, signedTx.Nonce) {
		return fmt.Errorf("%w: nonce %d is already pending", database.ErrInvalidTransaction, signedTx.Nonce)
	}

	pending := s.mempool.PendingValue(signedTx.FromID)
	if signedTx.Value > from.Balance || pending > from.Balance-signedTx.Value {
		return fmt.Errorf("%w: bal %d, pending %d, needed %d", database.ErrInsufficientBalance, from.Balance, pending, signedTx.Value)
	}

	return nil
}
