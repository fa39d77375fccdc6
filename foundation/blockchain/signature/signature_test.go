package signature_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/signature"
)

const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

type payload struct {
	Name string
}

// =============================================================================

func Test_Signing(t *testing.T) {
	t.Log("Given the need to sign data and recover the signer.")
	{
		value := payload{Name: "Bill"}

		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the private key: %s", failed, err)
		}

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign data: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign data.", success)

		if err := signature.VerifySignature(v, r, s); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the signature: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		addr, err := signature.FromAddress(value, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the from address: %s", failed, err)
		}

		if addr != from {
			t.Logf("\t\tgot: %s", addr)
			t.Logf("\t\texp: %s", from)
			t.Fatalf("\t%s\tShould get back the right address.", failed)
		}
		t.Logf("\t%s\tShould get back the right address.", success)

		tampered := payload{Name: "Jill"}
		addr, err = signature.FromAddress(tampered, v, r, s)
		if err == nil && addr == from {
			t.Fatalf("\t%s\tShould not recover the signer for tampered data.", failed)
		}
		t.Logf("\t%s\tShould not recover the signer for tampered data.", success)

		str := signature.SignatureString(v, r, s)
		v2, r2, s2, err := signature.ToVRSFromHexSignature(str)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the signature string: %s", failed, err)
		}

		if v.Cmp(v2) != 0 || r.Cmp(r2) != 0 || s.Cmp(s2) != 0 {
			t.Fatalf("\t%s\tShould get back the same signature values.", failed)
		}
		t.Logf("\t%s\tShould get back the same signature values.", success)
	}
}

func Test_SignConsistency(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	v1, r1, s1, err := signature.Sign(payload{Name: "Bill"}, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	addr1, err := signature.FromAddress(payload{Name: "Bill"}, v1, r1, s1)
	if err != nil {
		t.Fatalf("Should be able to generate an address: %s", err)
	}

	v2, r2, s2, err := signature.Sign(payload{Name: "Jill"}, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	addr2, err := signature.FromAddress(payload{Name: "Jill"}, v2, r2, s2)
	if err != nil {
		t.Fatalf("Should be able to generate an address: %s", err)
	}

	if addr1 != addr2 {
		t.Errorf("Got: %s", addr1)
		t.Errorf("Got: %s", addr2)
		t.Fatalf("Should have the same address.")
	}
}

func Test_VerifySignature(t *testing.T) {
	tt := []struct {
		name string
		v    *big.Int
		r    *big.Int
		s    *big.Int
	}{
		{name: "missing", v: nil, r: big.NewInt(1), s: big.NewInt(1)},
		{name: "recovery", v: big.NewInt(27), r: big.NewInt(1), s: big.NewInt(1)},
		{name: "zero", v: big.NewInt(29), r: big.NewInt(0), s: big.NewInt(0)},
	}

	t.Log("Given the need to reject malformed signature values.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				err := signature.VerifySignature(tst.v, tst.r, tst.s)
				if !errors.Is(err, signature.ErrInvalidSignature) {
					t.Fatalf("\t%s\tTest %d:\tShould reject the signature: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the signature.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Hash(t *testing.T) {
	value := payload{Name: "Bill"}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	if h := signature.HashWith(signature.DigestSHA256, value); h != hash {
		t.Fatalf("Should get the same hash for the sha256 digest: %s", h[:6])
	}

	b3 := signature.HashWith(signature.DigestBlake3, value)
	if b3 == hash || len(b3) != len(hash) {
		t.Fatalf("Should get a different 32 byte hash for blake3: %s", b3)
	}

	if b3 != signature.HashWith(signature.DigestBlake3, value) {
		t.Fatalf("Should get back the same blake3 hash twice.")
	}

	if h := signature.HashWith("md5", value); h != signature.ZeroHash {
		t.Fatalf("Should get the zero hash for an unsupported digest: %s", h)
	}
}
