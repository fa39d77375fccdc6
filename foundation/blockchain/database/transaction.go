package database

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/signature"
)

// Tx is the transactional information between two parties.
type Tx struct {
	ChainID   uint16    `json:"chain_id"`  // Ethereum: The chain id that is listed in the genesis file.
	Nonce     uint64    `json:"nonce"`     // Ethereum: Unique id for the transaction supplied by the user.
	FromID    AccountID `json:"from"`      // Ethereum: Account sending the transaction. Will be checked using signature.
	ToID      AccountID `json:"to"`        // Ethereum: Account receiving the benefit of the transaction.
	Value     uint64    `json:"value"`     // Ethereum: Monetary value received from this transaction.
	TimeStamp uint64    `json:"timestamp"` // Time the transaction was created in milliseconds.
}

// NewTx constructs a new transaction.
func NewTx(chainID uint16, nonce uint64, fromID AccountID, toID AccountID, value uint64, timeStamp uint64) (Tx, error) {
	if !fromID.IsAccountID() {
		return Tx{}, fmt.Errorf("from: %w", ErrInvalidAccountID)
	}

	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to: %w", ErrInvalidAccountID)
	}

	tx := Tx{
		ChainID:   chainID,
		Nonce:     nonce,
		FromID:    fromID,
		ToID:      toID,
		Value:     value,
		TimeStamp: timeStamp,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Validate the to account address is a valid address.
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, fmt.Errorf("to: %w", ErrInvalidAccountID)
	}

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain. The
// reward transaction of a block carries no signature.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Ethereum: Recovery identifier, either 29 or 30 with wtfID.
	R *big.Int `json:"r"` // Ethereum: First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Ethereum: Second coordinate of the ECDSA signature.
}

// NewCoinbaseTx constructs the reward transaction for the specified block.
// The block number is used as the nonce so every reward has its own identity.
func NewCoinbaseTx(chainID uint16, number uint64, beneficiaryID AccountID, reward uint64, timeStamp uint64) SignedTx {
	return SignedTx{
		Tx: Tx{
			ChainID:   chainID,
			Nonce:     number,
			FromID:    CoinbaseID,
			ToID:      beneficiaryID,
			Value:     reward,
			TimeStamp: timeStamp,
		},
	}
}

// Validate verifies the transaction has a proper signature that conforms to our
// standards and is associated with the from account. It also checks the
// amount and the format of both accounts.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("%w: wrong chain id, got %d, exp %d", ErrInvalidTransaction, tx.ChainID, chainID)
	}

	if !tx.FromID.IsAccountID() || tx.FromID.IsCoinbase() {
		return fmt.Errorf("from %q: %w", tx.FromID, ErrInvalidAccountID)
	}

	if !tx.ToID.IsAccountID() || tx.ToID.IsCoinbase() {
		return fmt.Errorf("to %q: %w", tx.ToID, ErrInvalidAccountID)
	}

	if tx.FromID.Equal(tx.ToID) {
		return fmt.Errorf("%w: sending money to yourself, from %s, to %s", ErrInvalidTransaction, tx.FromID, tx.ToID)
	}

	if tx.Value == 0 {
		return ErrInvalidAmount
	}

	fromID, err := tx.FromAccount()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	if !fromID.Equal(tx.FromID) {
		return fmt.Errorf("%w: signature does not match from account %s", ErrInvalidTransaction, tx.FromID)
	}

	return nil
}

// IsCoinbase reports if this is a block reward transaction.
func (tx SignedTx) IsCoinbase() bool {
	return tx.FromID.IsCoinbase()
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// ID returns the identity of the transaction using the specified digest.
func (tx SignedTx) ID(digest string) string {
	return signature.HashWith(digest, tx)
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d", tx.FromID, tx.Nonce)
}
