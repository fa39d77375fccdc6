package database

import (
	"crypto/ecdsa"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// CoinbaseID is the account the mining reward is paid from. It holds no key
// and can never sign a transaction.
const CoinbaseID AccountID = "0x0000000000000000000000000000000000000000"

// Account represents information stored in the database for an individual account.
type Account struct {
	AccountID AccountID `json:"account"`
	Nonce     uint64    `json:"nonce"`
	Balance   uint64    `json:"balance"`
}

// =============================================================================

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the blockchain.
type AccountID string

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(hex)
	if !a.IsAccountID() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, hex)
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(pk).String())
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded account.
func (a AccountID) IsAccountID() bool {
	const addressLength = 20

	if !has0xPrefix(a) {
		return false
	}
	a = a[2:]

	return len(a) == 2*addressLength && isHex(a)
}

// Equal compares two accounts without regard to the checksum casing.
func (a AccountID) Equal(other AccountID) bool {
	return strings.EqualFold(string(a), string(other))
}

// IsCoinbase reports if the account is the reward source.
func (a AccountID) IsCoinbase() bool {
	return a.Equal(CoinbaseID)
}

// =============================================================================

// Accounts is the balance sheet for the chain. Writers always work against a
// copy; a published Accounts value is never changed.
type Accounts map[AccountID]Account

// Copy makes a copy of the accounts.
func (accs Accounts) Copy() Accounts {
	return maps.Clone(accs)
}

// Get returns the account for the specified id. Unknown accounts have a
// zero balance and nonce.
func (accs Accounts) Get(accountID AccountID) Account {
	acc, exists := accs[normalize(accountID)]
	if !exists {
		return Account{AccountID: normalize(accountID)}
	}
	return acc
}

// Sum returns the total of all balances.
func (accs Accounts) Sum() uint64 {
	var sum uint64
	for _, acc := range accs {
		sum += acc.Balance
	}
	return sum
}

// Sorted returns the accounts ordered by account id.
func (accs Accounts) Sorted() []Account {
	list := slices.Collect(maps.Values(accs))
	slices.SortFunc(list, func(a, b Account) int {
		return strings.Compare(string(a.AccountID), string(b.AccountID))
	})
	return list
}

// ApplyMiningReward gives the specified account the mining reward.
func (accs Accounts) ApplyMiningReward(beneficiaryID AccountID, reward uint64) {
	acc := accs.Get(beneficiaryID)
	acc.Balance += reward
	accs[acc.AccountID] = acc
}

// ApplyTransaction performs the business logic for applying a transaction
// to the accounts. Nothing is changed when an error is returned.
func (accs Accounts) ApplyTransaction(chainID uint16, tx SignedTx) error {
	if err := tx.Validate(chainID); err != nil {
		return err
	}

	from := accs.Get(tx.FromID)
	to := accs.Get(tx.ToID)

	if tx.Nonce <= from.Nonce {
		return fmt.Errorf("%w: nonce too small, current %d, provided %d", ErrInvalidTransaction, from.Nonce, tx.Nonce)
	}

	if from.Balance < tx.Value {
		return fmt.Errorf("%w: bal %d, needed %d", ErrInsufficientBalance, from.Balance, tx.Value)
	}

	from.Balance -= tx.Value
	from.Nonce = tx.Nonce
	to.Balance += tx.Value

	accs[from.AccountID] = from
	accs[to.AccountID] = to

	return nil
}

// =============================================================================

// normalize makes sure one account maps to one key regardless of the casing
// the caller used.
func normalize(a AccountID) AccountID {
	return AccountID(strings.ToLower(string(a)))
}

// has0xPrefix validates the account starts with a 0x.
func has0xPrefix(a AccountID) bool {
	return len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X')
}

// isHex validates whether each byte is valid hexadecimal string.
func isHex(a AccountID) bool {
	if len(a)%2 != 0 {
		return false
	}

	for _, c := range []byte(a) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
