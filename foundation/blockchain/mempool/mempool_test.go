package mempool_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const to = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")

func sign(t *testing.T, nonce uint64, value uint64) database.SignedTx {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	tx, err := database.NewTx(1, nonce, database.PublicKeyToAccountID(pk.PublicKey), to, value, 1_000+nonce)
	if err != nil {
		t.Fatalf("Should be able to construct the transaction: %s", err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return signedTx
}

func collect(mp *mempool.Mempool, howMany int) []uint64 {
	var nonces []uint64
	for tx := range mp.PickBest(howMany) {
		nonces = append(nonces, tx.Nonce)
	}
	return nonces
}

// =============================================================================

func Test_CRUD(t *testing.T) {
	t.Log("Given the need to validate mempool api.")
	{
		mp, err := mempool.New("sha256")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the mempool: %v", failed, err)
		}

		var ids []string
		for _, nonce := range []uint64{2, 3, 1} {
			id, err := mp.Upsert(sign(t, nonce, 10))
			if err != nil {
				t.Fatalf("\t%s\tShould be able to add a transaction: %v", failed, err)
			}
			ids = append(ids, id)
		}
		t.Logf("\t%s\tShould be able to add transactions.", success)

		if mp.Count() != 3 {
			t.Fatalf("\t%s\tShould have 3 transactions, got %d.", failed, mp.Count())
		}

		if _, err := mp.Upsert(sign(t, 2, 10)); !errors.Is(err, mempool.ErrDuplicateTransaction) {
			t.Fatalf("\t%s\tShould reject a duplicate transaction: %v", failed, err)
		}

		if mp.Count() != 3 {
			t.Fatalf("\t%s\tShould not change the pool on a duplicate.", failed)
		}
		t.Logf("\t%s\tShould reject a duplicate transaction.", success)

		if got := collect(mp, -1); !slices.Equal(got, []uint64{2, 3, 1}) {
			t.Fatalf("\t%s\tShould pick in arrival order, got %v.", failed, got)
		}

		if got := collect(mp, 2); !slices.Equal(got, []uint64{2, 3}) {
			t.Fatalf("\t%s\tShould pick at most 2, got %v.", failed, got)
		}
		t.Logf("\t%s\tShould pick in arrival order.", success)

		if mp.PendingValue(to) != 0 || mp.PendingValue(sign(t, 1, 1).FromID) != 30 {
			t.Fatalf("\t%s\tShould track pending values per account.", failed)
		}

		if n, ok := mp.HighestNonce(sign(t, 1, 1).FromID); !ok || n != 3 {
			t.Fatalf("\t%s\tShould track the highest pending nonce, got %d.", failed, n)
		}

		if !mp.HasNonce(sign(t, 1, 1).FromID, 3) || mp.HasNonce(sign(t, 1, 1).FromID, 4) {
			t.Fatalf("\t%s\tShould track pending nonces per account.", failed)
		}
		t.Logf("\t%s\tShould track pending values per account.", success)

		mp.Delete(ids[1])
		mp.Delete(ids[1], "0xunknown")

		if mp.Count() != 2 || mp.Exists(ids[1]) {
			t.Fatalf("\t%s\tShould be able to remove a transaction once.", failed)
		}

		if got := collect(mp, -1); !slices.Equal(got, []uint64{2, 1}) {
			t.Fatalf("\t%s\tShould keep the arrival order after a delete, got %v.", failed, got)
		}
		t.Logf("\t%s\tShould be able to remove transactions.", success)

		mp.Truncate()
		if mp.Count() != 0 || len(mp.Copy()) != 0 {
			t.Fatalf("\t%s\tShould be able to truncate the pool.", failed)
		}
		t.Logf("\t%s\tShould be able to truncate the pool.", success)
	}
}

func Test_PickBestRestart(t *testing.T) {
	mp, err := mempool.NewWithStrategy("nonce", "blake3")
	if err != nil {
		t.Fatalf("Should be able to construct the mempool: %v", err)
	}

	seq := mp.PickBest(10)

	mp.Upsert(sign(t, 2, 10))
	mp.Upsert(sign(t, 1, 10))

	if got := collect(mp, 10); !slices.Equal(got, []uint64{1, 2}) {
		t.Fatalf("Should pick in nonce order, got %v.", got)
	}

	var n int
	for range seq {
		n++
		break
	}

	if n != 1 {
		t.Fatalf("Should read the pool when the sequence is iterated.")
	}

	if mp.Count() != 2 {
		t.Fatalf("Should not remove transactions when picking.")
	}
}

func Test_Strategy(t *testing.T) {
	if _, err := mempool.NewWithStrategy("tip", "sha256"); err == nil {
		t.Fatalf("Should not accept an unknown strategy.")
	}
}
