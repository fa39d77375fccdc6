// Package wallet manages key pairs for accounts on the blockchain. Private
// keys are handed back to the caller once and are never logged or stored
// by this package unless Save is called.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
)

// KeyExtension is the file extension used for stored private keys.
const KeyExtension = ".ecdsa"

// Set of errors returned by the wallet.
var (
	ErrInvalidKey = errors.New("invalid key")
	ErrKeyGen     = errors.New("key generation failed")
)

// Wallet is a freshly generated key pair and the account it controls.
type Wallet struct {
	Address    database.AccountID
	PublicKey  string
	PrivateKey string
}

// String implements the fmt.Stringer interface so the private key never
// makes it into a log by accident.
func (w Wallet) String() string {
	return string(w.Address)
}

// New generates a key pair using a cryptographically secure random source.
func New() (Wallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return Wallet{}, fmt.Errorf("%w: %w", ErrKeyGen, err)
	}

	return FromPrivateKey(privateKey), nil
}

// FromPrivateKey returns the wallet for an existing private key.
func FromPrivateKey(privateKey *ecdsa.PrivateKey) Wallet {
	return Wallet{
		Address:    DeriveAddress(privateKey.PublicKey),
		PublicKey:  hexutil.Encode(crypto.FromECDSAPub(&privateKey.PublicKey)),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(privateKey)),
	}
}

// DeriveAddress returns the account for the public key.
func DeriveAddress(publicKey ecdsa.PublicKey) database.AccountID {
	return database.PublicKeyToAccountID(publicKey)
}

// AddressFromPublicKeyHex returns the account for a hex encoded public key.
func AddressFromPublicKeyHex(publicKey string) (database.AccountID, error) {
	data, err := hexutil.Decode(with0x(publicKey))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	pk, err := crypto.UnmarshalPubkey(data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return DeriveAddress(*pk), nil
}

// ParsePrivateKey decodes a hex encoded private key, with or without the
// 0x prefix.
func ParsePrivateKey(privateKey string) (*ecdsa.PrivateKey, error) {
	pk, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(privateKey, "0x"), "0X"))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return pk, nil
}

// Sign signs the transaction with the hex encoded private key.
func Sign(privateKey string, tx database.Tx) (database.SignedTx, error) {
	pk, err := ParsePrivateKey(privateKey)
	if err != nil {
		return database.SignedTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.SignedTx{}, err
	}

	return signedTx, nil
}

// =============================================================================

// Save writes the private key to the specified file.
func Save(path string, privateKey *ecdsa.PrivateKey) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return crypto.SaveECDSA(path, privateKey)
}

// Load reads the private key from the specified file.
func Load(path string) (*ecdsa.PrivateKey, error) {
	pk, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidKey, path, err)
	}

	return pk, nil
}

// KeyPath forms the path to the named key file, adding the extension when
// it is missing.
func KeyPath(dir string, name string) string {
	if !strings.HasSuffix(name, KeyExtension) {
		name += KeyExtension
	}

	return filepath.Join(dir, name)
}

func with0x(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
