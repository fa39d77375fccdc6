package nameservice_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
	"github.com/wtfcosmos/blockchain/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Lookup(t *testing.T) {
	t.Log("Given the need to name the well known accounts.")
	{
		dir := t.TempDir()

		pk, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a key : %s", failed, err)
		}
		if err := wallet.Save(wallet.KeyPath(dir, "miner1"), pk); err != nil {
			t.Fatalf("\t%s\tShould be able to save the key : %s", failed, err)
		}

		ns, err := nameservice.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the name service : %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the name service.", success)

		accountID := wallet.DeriveAddress(pk.PublicKey)
		if name := ns.Lookup(accountID); name != "miner1" {
			t.Fatalf("\t%s\tShould find the name for the account : got %q", failed, name)
		}
		t.Logf("\t%s\tShould find the name for the account.", success)

		lower := database.AccountID(strings.ToLower(string(accountID)))
		if name := ns.Lookup(lower); name != "miner1" {
			t.Fatalf("\t%s\tShould find the name regardless of casing : got %q", failed, name)
		}
		t.Logf("\t%s\tShould find the name regardless of casing.", success)

		unknown := database.AccountID("0x00000000000000000000000000000000000000aa")
		if name := ns.Lookup(unknown); name != string(unknown) {
			t.Fatalf("\t%s\tShould return the account when there is no name : got %q", failed, name)
		}
		t.Logf("\t%s\tShould return the account when there is no name.", success)
	}
}

func Test_MissingFolder(t *testing.T) {
	t.Log("Given the need to run without any key files.")
	{
		ns, err := nameservice.New(filepath.Join(t.TempDir(), "missing"))
		if err != nil {
			t.Fatalf("\t%s\tShould not fail on a missing folder : %s", failed, err)
		}
		if len(ns.Copy()) != 0 {
			t.Fatalf("\t%s\tShould have no names.", failed)
		}
		t.Logf("\t%s\tShould have an empty name service.", success)
	}
}
