package commands_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/wtfcosmos/blockchain/app/tooling/admin/commands"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage/memory"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_Commands(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	miner, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %s", err)
	}

	db, err := database.New(gen, memory.New(), nil)
	if err != nil {
		t.Fatalf("Should be able to open the database: %s", err)
	}
	defer db.Close()

	for range 2 {
		block, err := database.POW(context.Background(), database.POWArgs{
			ChainID:       gen.ChainID,
			BeneficiaryID: miner.Address,
			Difficulty:    gen.Difficulty,
			MiningReward:  gen.MiningReward,
			Digest:        gen.Digest,
			PrevBlock:     db.LatestBlock(),
			TimeStamp:     uint64(time.Now().UnixMilli()),
		})
		if err != nil {
			t.Fatalf("Should be able to mine a block: %s", err)
		}
		if err := db.ApplyBlock(block, nil); err != nil {
			t.Fatalf("Should be able to apply the block: %s", err)
		}
	}

	t.Log("Given the need to inspect the blocks of a node.")
	{
		var buf bytes.Buffer
		if err := commands.Balances(&buf, nil, db); err != nil {
			t.Fatalf("\t%s\tShould be able to print the balances : %s", failed, err)
		}
		if !strings.Contains(buf.String(), "Balance: 100") {
			t.Fatalf("\t%s\tShould print the miner balance : %s", failed, buf.String())
		}
		t.Logf("\t%s\tShould print the miner balance.", success)

		buf.Reset()
		if err := commands.Transactions(&buf, []string{string(miner.Address)}, db); err != nil {
			t.Fatalf("\t%s\tShould be able to print the transactions : %s", failed, err)
		}
		if got := strings.Count(buf.String(), "\n"); got != 2 {
			t.Fatalf("\t%s\tShould print one reward per block : got %d", failed, got)
		}
		t.Logf("\t%s\tShould print one reward per block.", success)

		buf.Reset()
		if err := commands.Verify(&buf, db); err != nil {
			t.Fatalf("\t%s\tShould verify the chain : %s", failed, err)
		}
		if !strings.Contains(buf.String(), "Verified 2 blocks, total supply 100") {
			t.Fatalf("\t%s\tShould report the verified chain : %s", failed, buf.String())
		}
		t.Logf("\t%s\tShould verify the chain.", success)

		if err := commands.Balances(&buf, []string{"bob"}, db); err == nil {
			t.Fatalf("\t%s\tShould reject a malformed account.", failed)
		}
		t.Logf("\t%s\tShould reject a malformed account.", success)
	}
}
