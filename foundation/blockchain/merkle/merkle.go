// Package merkle provides an implementation of a merkle tree for validation
// support for the blockchain. The root commits to every value and to the
// order the values were added in.
package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"hash"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrNotFound is returned when a proof is requested for an index that is not
// part of the tree.
var ErrNotFound = errors.New("value not found in tree")

// Hashable can be implemented by values that know how to produce their own
// leaf hash. Values that don't implement it are hashed over their JSON.
type Hashable interface {
	Hash() ([]byte, error)
}

// =============================================================================

// Tree represents a merkle tree for values of some type T. Levels[0] holds
// the leaf hashes and the last level holds the root.
type Tree[T any] struct {
	Levels       [][][]byte
	MerkleRoot   []byte
	values       []T
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using sha256
// when constructing a new tree.
func WithHashStrategy[T any](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree for the specified values. An empty set
// of values produces a tree whose root is all zeros.
func NewTree[T any](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: sha256.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the levels of the tree from the specified values. If the
// tree has been generated previously, the tree is re-generated from scratch.
func (t *Tree[T]) Generate(values []T) error {
	t.values = append([]T(nil), values...)
	t.Levels = nil

	if len(values) == 0 {
		t.MerkleRoot = make([]byte, t.hashStrategy().Size())
		return nil
	}

	leafs := make([][]byte, len(values))
	for i, value := range values {
		h, err := t.leafHash(value)
		if err != nil {
			return fmt.Errorf("leaf %d: %w", i, err)
		}
		leafs[i] = h
	}

	t.Levels = append(t.Levels, leafs)

	level := leafs
	for len(level) > 1 {

		// An odd node at the end of a level is paired with itself.
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			right := i + 1
			if right == len(level) {
				right = i
			}
			next = append(next, t.nodeHash(level[i], level[right]))
		}

		t.Levels = append(t.Levels, next)
		level = next
	}

	t.MerkleRoot = level[0]

	return nil
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving the value at the specified index is in the tree.
// An order of 0 means the proof hash comes first, 1 means it comes second.
func (t *Tree[T]) Proof(index int) ([][]byte, []int64, error) {
	if index < 0 || index >= len(t.values) {
		return nil, nil, ErrNotFound
	}

	var proof [][]byte
	var order []int64

	for _, level := range t.Levels[:len(t.Levels)-1] {
		sibling := index ^ 1
		if sibling >= len(level) {
			sibling = index
		}

		proof = append(proof, level[sibling])
		if sibling < index {
			order = append(order, 0)
		} else {
			order = append(order, 1)
		}

		index /= 2
	}

	return proof, order, nil
}

// VerifyData checks the value at the specified index is committed to by
// the tree's root.
func (t *Tree[T]) VerifyData(index int) error {
	proof, order, err := t.Proof(index)
	if err != nil {
		return err
	}

	leaf, err := t.leafHash(t.values[index])
	if err != nil {
		return err
	}

	if !VerifyProof(t.hashStrategy, leaf, t.MerkleRoot, proof, order) {
		return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
	}

	return nil
}

// Values returns the values stored in the tree in the order they were added.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// RootHex converts the merkle root byte hash to a hex encoded string.
func (t *Tree[T]) RootHex() string {
	return hexutil.Encode(t.MerkleRoot)
}

// MarshalText implements the TextMarshaler interface and produces a panic
// if anyone tries to marshal the Merkle tree. Use the Values function to
// return a slice that can be marshaled.
func (t *Tree[T]) MarshalText() (text []byte, err error) {
	panic("do not marshal the merkle tree, use Values")
}

// =============================================================================

// VerifyProof replays the proof for the specified leaf hash and reports if
// it produces the specified root.
func VerifyProof(hashStrategy func() hash.Hash, leaf []byte, root []byte, proof [][]byte, order []int64) bool {
	if len(proof) != len(order) {
		return false
	}

	sum := leaf
	for i, p := range proof {
		h := hashStrategy()
		switch order[i] {
		case 0:
			h.Write(p)
			h.Write(sum)
		default:
			h.Write(sum)
			h.Write(p)
		}
		sum = h.Sum(nil)
	}

	return bytes.Equal(sum, root)
}

// =============================================================================

func (t *Tree[T]) leafHash(value T) ([]byte, error) {
	if hv, ok := any(value).(Hashable); ok {
		return hv.Hash()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	h := t.hashStrategy()
	h.Write(data)
	return h.Sum(nil), nil
}

func (t *Tree[T]) nodeHash(left []byte, right []byte) []byte {
	h := t.hashStrategy()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}
