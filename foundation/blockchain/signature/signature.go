// Package signature provides helper functions for handling the blockchain
// signature and digest needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zeebo/blake3"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// Set of digest algorithms a chain can be configured with.
const (
	DigestSHA256 = "sha256"
	DigestBlake3 = "blake3"
)

// wtfID is an arbitrary number added to the recovery id so signatures
// produced for this chain are recognizable. Ethereum uses 27.
const wtfID = 29

// ErrInvalidSignature is returned when signature values can't be trusted.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hasher returns a constructor for the specified digest algorithm.
func Hasher(digest string) (func() hash.Hash, error) {
	switch digest {
	case DigestSHA256, "":
		return sha256.New, nil
	case DigestBlake3:
		return func() hash.Hash { return blake3.New() }, nil
	}

	return nil, fmt.Errorf("digest %q is not supported", digest)
}

// Hash returns a unique string for the value using sha256.
func Hash(value any) string {
	return HashWith(DigestSHA256, value)
}

// HashWith returns a unique string for the value using the specified digest.
// The value is marshaled to JSON so field order is fixed by the type.
func HashWith(digest string, value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ZeroHash
	}

	newHash, err := Hasher(digest)
	if err != nil {
		return ZeroHash
	}

	h := newHash()
	h.Write(data)
	return hexutil.Encode(h.Sum(nil))
}

// Sign uses the specified private key to sign the data.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the data for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, ErrInvalidSignature
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature values conform to our standards.
func VerifySignature(v, r, s *big.Int) error {
	if v == nil || r == nil || s == nil {
		return fmt.Errorf("%w: missing signature values", ErrInvalidSignature)
	}

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - wtfID
	if uintV != 0 && uintV != 1 {
		return fmt.Errorf("%w: invalid recovery id", ErrInvalidSignature)
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return fmt.Errorf("%w: invalid signature values", ErrInvalidSignature)
	}

	return nil
}

// FromAddress extracts the address for the account that signed the data.
func FromAddress(value any, v, r, s *big.Int) (string, error) {
	if err := VerifySignature(v, r, s); err != nil {
		return "", err
	}

	// Prepare the data for public key extraction.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, ToSignatureBytes(v, r, s))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	if v == nil || r == nil || s == nil {
		return ""
	}
	return hexutil.Encode(ToSignatureBytesWithWTFID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hexutil.Decode(sigStr)
	if err != nil {
		return nil, nil, nil, err
	}

	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("%w: got %d bytes, exp %d", ErrInvalidSignature, len(sig), crypto.SignatureLength)
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the wtfID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	// Left pad r and s so short values keep their 32 byte slots.
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])

	sig[64] = byte(v.Uint64() - wtfID)

	return sig
}

// ToSignatureBytesWithWTFID converts the r, s, v values into a slice of bytes
// keeping the chain id.
func ToSignatureBytesWithWTFID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this data with
// the WTF stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the data.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the data data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(v)

	// Convert the stamp into a slice of bytes. This stamp is
	// used so signatures we produce when signing data
	// are always unique to this blockchain.
	stamp := []byte("\x19WTF Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the data.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + wtfID})

	return v, r, s
}
