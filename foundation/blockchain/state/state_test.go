package state_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database/storage/memory"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/genesis"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/mempool"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/state"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newState(t *testing.T, change func(g *genesis.Genesis)) *state.State {
	gen := genesis.Default()
	gen.Difficulty = 1
	if change != nil {
		change(&gen)
	}

	st, err := state.New(state.Config{
		Genesis: gen,
		Storage: memory.New(),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}

	t.Cleanup(func() { st.Shutdown() })

	return st
}

func newWallet(t *testing.T) wallet.Wallet {
	w, err := wallet.New()
	if err != nil {
		t.Fatalf("Should be able to create a wallet: %s", err)
	}
	return w
}

func mine(t *testing.T, st *state.State, miner database.AccountID) database.Block {
	block, err := st.MineNewBlock(context.Background(), miner, nil)
	if err != nil {
		t.Fatalf("Should be able to mine a block: %s", err)
	}
	return block
}

func signed(t *testing.T, st *state.State, from wallet.Wallet, to wallet.Wallet, nonce uint64, value uint64) database.SignedTx {
	tx, err := database.NewTx(st.Genesis().ChainID, nonce, from.Address, to.Address, value, uint64(time.Now().UnixMilli()))
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %s", err)
	}

	signedTx, err := wallet.Sign(from.PrivateKey, tx)
	if err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}

	return signedTx
}

// =============================================================================

func Test_FirstBlock(t *testing.T) {
	st := newState(t, nil)
	reward := st.Genesis().MiningReward

	t.Log("Given a node at genesis with two new wallets.")
	{
		status := st.QueryStatus()
		if status.Height != 0 || status.TotalSupply != 0 || status.PendingCount != 0 {
			t.Fatalf("\t%s\tShould start at height 0 with no supply: %+v", failed, status)
		}
		t.Logf("\t%s\tShould start at height 0 with no supply.", success)

		a, b := newWallet(t), newWallet(t)

		_, _, err := st.SubmitTransfer(a.PrivateKey, a.Address, b.Address, 10)
		if !errors.Is(err, database.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould reject a transfer from an empty account: %v", failed, err)
		}

		if st.QueryMempoolLength() != 0 || st.QueryBalance(a.Address) != 0 {
			t.Fatalf("\t%s\tShould not change anything on a rejected transfer.", failed)
		}
		t.Logf("\t%s\tShould reject a transfer from an empty account.", success)

		mine(t, st, a.Address)

		status = st.QueryStatus()
		if st.QueryBalance(a.Address) != reward || status.TotalSupply != reward || status.Height != 1 {
			t.Fatalf("\t%s\tShould pay the reward: bal[%d] supply[%d] height[%d]", failed, st.QueryBalance(a.Address), status.TotalSupply, status.Height)
		}
		t.Logf("\t%s\tShould pay the reward for the first block.", success)
	}
}

func Test_Transfer(t *testing.T) {
	st := newState(t, nil)
	reward := st.Genesis().MiningReward
	a, b, m := newWallet(t), newWallet(t), newWallet(t)

	mine(t, st, a.Address)

	t.Log("Given a funded account that sends a transfer.")
	{
		const x = 20

		_, id, err := st.SubmitTransfer(a.PrivateKey, a.Address, b.Address, x)
		if err != nil {
			t.Fatalf("\t%s\tShould accept the transfer: %v", failed, err)
		}

		if id == "" || st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould have one pending transaction.", failed)
		}
		t.Logf("\t%s\tShould have one pending transaction.", success)

		if st.QueryBalance(a.Address) != reward {
			t.Fatalf("\t%s\tShould not change the balance until the block is mined.", failed)
		}
		t.Logf("\t%s\tShould not change the balance until the block is mined.", success)

		block := mine(t, st, m.Address)

		if len(block.Values()) != 2 {
			t.Fatalf("\t%s\tShould include the reward and the transfer, got %d.", failed, len(block.Values()))
		}

		if st.QueryBalance(a.Address) != reward-x || st.QueryBalance(b.Address) != x {
			t.Fatalf("\t%s\tShould move the amount: a[%d] b[%d]", failed, st.QueryBalance(a.Address), st.QueryBalance(b.Address))
		}
		t.Logf("\t%s\tShould move the amount.", success)

		status := st.QueryStatus()
		if status.PendingCount != 0 || status.TotalSupply != 2*reward || status.Height != 2 {
			t.Fatalf("\t%s\tShould drain the pool and only add the reward: %+v", failed, status)
		}
		t.Logf("\t%s\tShould drain the pool and only add the reward.", success)

		var sum uint64
		for _, acc := range st.QueryAccounts() {
			sum += acc.Balance
		}
		if sum != status.TotalSupply {
			t.Fatalf("\t%s\tShould conserve the supply: sum[%d] supply[%d]", failed, sum, status.TotalSupply)
		}
		t.Logf("\t%s\tShould conserve the supply.", success)

		blocks, err := st.QueryBlocksByAccount(b.Address)
		if err != nil || len(blocks) != 1 || blocks[0].Header.Number != 2 {
			t.Fatalf("\t%s\tShould find the block for the receiver: %v", failed, err)
		}
	}
}

func Test_SubmitRules(t *testing.T) {
	st := newState(t, nil)
	reward := st.Genesis().MiningReward
	a, b := newWallet(t), newWallet(t)

	mine(t, st, a.Address)

	t.Log("Given the need to validate submitted transactions.")
	{
		tx1 := signed(t, st, a, b, 1, reward-10)
		if _, err := st.UpsertWalletTransaction(tx1); err != nil {
			t.Fatalf("\t%s\tShould accept a signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a signed transaction.", success)

		tt := []struct {
			name string
			tx   database.SignedTx
			err  error
		}{
			{name: "duplicate", tx: tx1, err: mempool.ErrDuplicateTransaction},
			{name: "pending-nonce", tx: signed(t, st, a, b, 1, 1), err: database.ErrInvalidTransaction},
			{name: "cumulative", tx: signed(t, st, a, b, 2, 11), err: database.ErrInsufficientBalance},
			{name: "amount", tx: signed(t, st, a, b, 2, 0), err: database.ErrInvalidAmount},
			{name: "unfunded", tx: signed(t, st, b, a, 1, 1), err: database.ErrInsufficientBalance},
		}

		for testID, tst := range tt {
			f := func(t *testing.T) {
				_, err := st.UpsertWalletTransaction(tst.tx)
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould get %v, got %v", failed, testID, tst.err, err)
				}

				if st.QueryMempoolLength() != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould leave the pool unchanged.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the transaction without side effects.", success, testID)
			}

			t.Run(tst.name, f)
		}

		if _, err := st.UpsertWalletTransaction(signed(t, st, a, b, 2, 10)); err != nil {
			t.Fatalf("\t%s\tShould accept a transaction that spends the rest: %v", failed, err)
		}

		mine(t, st, b.Address)

		if _, err := st.UpsertWalletTransaction(tx1); !errors.Is(err, database.ErrInvalidTransaction) {
			t.Fatalf("\t%s\tShould reject a replayed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a replayed transaction.", success)

		if _, _, err := st.SubmitTransfer(b.PrivateKey, a.Address, b.Address, 1); !errors.Is(err, database.ErrInvalidTransaction) {
			t.Fatalf("\t%s\tShould reject a key that does not match the sender: %v", failed, err)
		}

		if _, _, err := st.SubmitTransfer("0x1234", "", b.Address, 1); !errors.Is(err, wallet.ErrInvalidKey) {
			t.Fatalf("\t%s\tShould reject a malformed key: %v", failed, err)
		}
	}
}

func Test_ServerNonce(t *testing.T) {
	st := newState(t, nil)
	a, b := newWallet(t), newWallet(t)

	mine(t, st, a.Address)

	for i := range 3 {
		tx, _, err := st.SubmitTransfer(a.PrivateKey, "", b.Address, 1)
		if err != nil {
			t.Fatalf("Should accept transfer %d: %v", i, err)
		}

		if tx.Nonce != uint64(i+1) {
			t.Fatalf("Should assign nonce %d, got %d", i+1, tx.Nonce)
		}
	}

	mine(t, st, a.Address)

	if acc := st.QueryAccount(a.Address); acc.Nonce != 3 {
		t.Fatalf("Should confirm all three transfers, nonce %d", acc.Nonce)
	}

	tx, _, err := st.SubmitTransfer(a.PrivateKey, a.Address, b.Address, 1)
	if err != nil || tx.Nonce != 4 {
		t.Fatalf("Should continue from the confirmed nonce: %v", err)
	}
}

func Test_TransPerBlock(t *testing.T) {
	st := newState(t, func(g *genesis.Genesis) { g.TransPerBlock = 2 })
	a, b := newWallet(t), newWallet(t)

	mine(t, st, a.Address)

	for range 3 {
		if _, _, err := st.SubmitTransfer(a.PrivateKey, "", b.Address, 1); err != nil {
			t.Fatalf("Should accept the transfer: %v", err)
		}
	}

	block := mine(t, st, a.Address)
	if len(block.Values()) != 3 || st.QueryMempoolLength() != 1 {
		t.Fatalf("Should include two transfers and leave one pending: txs[%d] pending[%d]", len(block.Values()), st.QueryMempoolLength())
	}

	pending := st.QueryMempool()
	if len(pending) != 1 || pending[0].Nonce != 3 {
		t.Fatalf("Should leave the last transfer in the pool.")
	}
}

func Test_QueryBlocks(t *testing.T) {
	st := newState(t, nil)
	miner := newWallet(t)

	for range 4 {
		mine(t, st, miner.Address)
	}

	tt := []struct {
		limit int
		exp   int
	}{
		{limit: 0, exp: 0},
		{limit: 2, exp: 2},
		{limit: 5, exp: 5},
		{limit: 50, exp: 5},
	}

	for _, tst := range tt {
		blocks := st.QueryBlocks(tst.limit)
		if len(blocks) != tst.exp {
			t.Fatalf("Should get %d blocks for limit %d, got %d", tst.exp, tst.limit, len(blocks))
		}

		for i := 1; i < len(blocks); i++ {
			if blocks[i-1].Header.PrevBlockHash != blocks[i].Hash() || blocks[i-1].Header.Number != blocks[i].Header.Number+1 {
				t.Fatalf("Should link each block to the next older one.")
			}
		}
	}

	blocks := st.QueryBlocks(50)
	if blocks[0].Header.Number != 4 || blocks[4].Header.Number != 0 {
		t.Fatalf("Should return the most recent block first and end at genesis.")
	}
}

func Test_CancelledCommit(t *testing.T) {
	st := newState(t, nil)
	miner := newWallet(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := st.MineNewBlock(ctx, miner.Address, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Should not mine with a cancelled context: %v", err)
	}

	if st.QueryStatus().Height != 0 {
		t.Fatalf("Should not add a block.")
	}
}

func Test_ConcurrentReads(t *testing.T) {
	st := newState(t, nil)
	miner := newWallet(t)
	reward := st.Genesis().MiningReward

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}

			status := st.QueryStatus()
			if status.TotalSupply != reward*status.Height {
				t.Errorf("Should see the supply and height from the same block: %+v", status)
				return
			}
		}
	}()

	for range 5 {
		mine(t, st, miner.Address)
	}

	close(done)
	wg.Wait()
}

func Test_BlockAcceptance(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	var node atomic.Pointer[state.State]
	var mu sync.Mutex
	var seen []state.Status

	ev := func(v string, args ...any) {
		if st := node.Load(); st != nil {
			status := st.QueryStatus()
			mu.Lock()
			seen = append(seen, status)
			mu.Unlock()
		}
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   memory.New(),
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	a, b := newWallet(t), newWallet(t)
	mine(t, st, a.Address)

	t.Log("Given the need to show a mined block and its pool removals together.")
	{
		if _, err := st.UpsertWalletTransaction(signed(t, st, a, b, 1, 5)); err != nil {
			t.Fatalf("\t%s\tShould accept the transfer: %v", failed, err)
		}

		var wg sync.WaitGroup
		done := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				status := st.QueryStatus()
				if (status.Height == 1 && status.PendingCount != 1) || (status.Height == 2 && status.PendingCount != 0) {
					t.Errorf("\t%s\tShould never see a mixed view: %+v", failed, status)
					return
				}
			}
		}()

		node.Store(st)
		mine(t, st, a.Address)
		node.Store(nil)

		close(done)
		wg.Wait()

		mu.Lock()
		defer mu.Unlock()

		if len(seen) == 0 {
			t.Fatalf("\t%s\tShould have observed events while mining.", failed)
		}

		for _, status := range seen {
			switch status.Height {
			case 1:
				if status.PendingCount != 1 {
					t.Fatalf("\t%s\tShould still list the transfer before the block: %+v", failed, status)
				}
			case 2:
				if status.PendingCount != 0 {
					t.Fatalf("\t%s\tShould not list the transfer once the block is visible: %+v", failed, status)
				}
			default:
				t.Fatalf("\t%s\tShould only see heights 1 and 2: %+v", failed, status)
			}
		}

		if last := seen[len(seen)-1]; last.Height != 2 {
			t.Fatalf("\t%s\tShould end at the new block: %+v", failed, last)
		}
		t.Logf("\t%s\tShould show the block and the pool removal at the same time.", success)
	}
}

func Test_AssembleDrops(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	var mu sync.Mutex
	var dropped []string

	ev := func(v string, args ...any) {
		if strings.Contains(v, "DROPPED") {
			mu.Lock()
			dropped = append(dropped, fmt.Sprintf(v, args...))
			mu.Unlock()
		}
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   memory.New(),
		EvHandler: ev,
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	a, b := newWallet(t), newWallet(t)
	mine(t, st, a.Address)

	t.Log("Given pooled transactions that no longer apply when the block is built.")
	{
		for _, nonce := range []uint64{2, 1} {
			if _, err := st.UpsertWalletTransaction(signed(t, st, a, b, nonce, 1)); err != nil {
				t.Fatalf("\t%s\tShould accept nonce %d: %v", failed, nonce, err)
			}
		}
		t.Logf("\t%s\tShould accept both transactions into the pool.", success)

		block := mine(t, st, b.Address)

		if len(block.Values()) != 2 || block.Values()[1].Nonce != 2 {
			t.Fatalf("\t%s\tShould include the reward and the first pooled transfer: txs[%d]", failed, len(block.Values()))
		}
		t.Logf("\t%s\tShould include the reward and the first pooled transfer.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould remove the transfer that could not apply: pending[%d]", failed, st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould remove the transfer that could not apply.", success)

		if acc := st.QueryAccount(a.Address); acc.Nonce != 2 || st.QueryBalance(b.Address) != gen.MiningReward+1 {
			t.Fatalf("\t%s\tShould apply only the included transfer: nonce[%d] bal[%d]", failed, acc.Nonce, st.QueryBalance(b.Address))
		}
		t.Logf("\t%s\tShould apply only the included transfer.", success)

		mu.Lock()
		defer mu.Unlock()

		if len(dropped) != 1 {
			t.Fatalf("\t%s\tShould report the dropped transfer once: %v", failed, dropped)
		}
		t.Logf("\t%s\tShould report the dropped transfer.", success)
	}
}

func Test_BlockHandler(t *testing.T) {
	gen := genesis.Default()
	gen.Difficulty = 1

	var mined []uint64
	st, err := state.New(state.Config{
		Genesis:      gen,
		Storage:      memory.New(),
		BlockHandler: func(block database.Block) { mined = append(mined, block.Header.Number) },
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	miner := newWallet(t)

	t.Log("Given the need to be told about every block this node mines.")
	{
		mine(t, st, miner.Address)
		mine(t, st, miner.Address)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		st.MineNewBlock(ctx, miner.Address, nil)

		if len(mined) != 2 || mined[0] != 1 || mined[1] != 2 {
			t.Fatalf("\t%s\tShould be called once per accepted block: %v", failed, mined)
		}
		t.Logf("\t%s\tShould be called once per accepted block.", success)
	}
}
