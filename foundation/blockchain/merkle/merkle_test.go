package merkle_test

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"testing"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/merkle"
	"github.com/zeebo/blake3"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data provides its own leaf hash.
type Data struct {
	x string
}

// Hash hashes the value using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

func sum(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func leaf(s string) []byte {
	h, _ := Data{x: s}.Hash()
	return h
}

// =============================================================================

func Test_Root(t *testing.T) {
	a, b, c := leaf("Hello"), leaf("Hi"), leaf("Hey")

	tt := []struct {
		name string
		data []Data
		root []byte
	}{
		{name: "one", data: []Data{{"Hello"}}, root: a},
		{name: "two", data: []Data{{"Hello"}, {"Hi"}}, root: sum(a, b)},
		{name: "three", data: []Data{{"Hello"}, {"Hi"}, {"Hey"}}, root: sum(sum(a, b), sum(c, c))},
	}

	t.Log("Given the need to calculate a merkle root.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				tree, err := merkle.NewTree(tst.data)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree: %v", failed, testID, err)
				}

				if !bytes.Equal(tree.MerkleRoot, tst.root) {
					t.Logf("\t\tgot: %x", tree.MerkleRoot)
					t.Logf("\t\texp: %x", tst.root)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected root.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected root.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Empty(t *testing.T) {
	tree, err := merkle.NewTree[Data](nil)
	if err != nil {
		t.Fatalf("Should be able to build an empty tree: %s", err)
	}

	if !bytes.Equal(tree.MerkleRoot, make([]byte, 32)) {
		t.Fatalf("Should get a zero root for an empty tree: %x", tree.MerkleRoot)
	}

	if _, _, err := tree.Proof(0); !errors.Is(err, merkle.ErrNotFound) {
		t.Fatalf("Should not get a proof from an empty tree: %v", err)
	}
}

func Test_Order(t *testing.T) {
	t1, err := merkle.NewTree([]Data{{"Hello"}, {"Hi"}})
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	t2, err := merkle.NewTree([]Data{{"Hi"}, {"Hello"}})
	if err != nil {
		t.Fatalf("Should be able to build the tree: %s", err)
	}

	if t1.RootHex() == t2.RootHex() {
		t.Fatalf("Should get a different root when the order changes.")
	}
}

func Test_Proof(t *testing.T) {
	strategies := map[string]func() hash.Hash{
		"sha256": sha256.New,
		"blake3": func() hash.Hash { return blake3.New() },
	}

	t.Log("Given the need to prove a value is part of the tree.")
	{
		for name, strategy := range strategies {
			for n := 1; n <= 9; n++ {
				f := func(t *testing.T) {
					var values []string
					for i := range n {
						values = append(values, fmt.Sprintf("value-%d", i))
					}

					tree, err := merkle.NewTree(values, merkle.WithHashStrategy[string](strategy))
					if err != nil {
						t.Fatalf("\t%s\tShould be able to build the tree: %v", failed, err)
					}

					for i := range values {
						if err := tree.VerifyData(i); err != nil {
							t.Fatalf("\t%s\tShould be able to verify value %d: %v", failed, i, err)
						}
					}
					t.Logf("\t%s\tShould be able to verify %d values.", success, n)

					proof, order, err := tree.Proof(0)
					if err != nil {
						t.Fatalf("\t%s\tShould be able to get a proof: %v", failed, err)
					}

					if n > 1 && merkle.VerifyProof(strategy, []byte("forged"), tree.MerkleRoot, proof, order) {
						t.Fatalf("\t%s\tShould not verify a forged leaf.", failed)
					}

					if got := tree.Values(); len(got) != n {
						t.Fatalf("\t%s\tShould get back %d values, got %d.", failed, n, len(got))
					}
				}

				t.Run(fmt.Sprintf("%s-%d", name, n), f)
			}
		}
	}
}
