// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wtfcosmos/blockchain/business/web/errs"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/database"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/state"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/wallet"
	"github.com/wtfcosmos/blockchain/foundation/events"
	"github.com/wtfcosmos/blockchain/foundation/nameservice"
	"github.com/wtfcosmos/blockchain/foundation/validate"
	"github.com/wtfcosmos/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Limits applied to the block listing.
const (
	defaultBlockLimit = 10
	maxBlockLimit     = 100
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Status returns the height, pending count, and supply of the chain.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := h.State.QueryStatus()

	resp := status{
		Blockchain: chainStatus{
			Height:              st.Height,
			LatestHash:          st.LatestHash,
			PendingTransactions: st.PendingCount,
			TotalSupply:         st.TotalSupply,
			Difficulty:          st.Difficulty,
			MiningReward:        st.MiningReward,
			TransPerBlock:       st.TransPerBlock,
			IsMining:            h.State.IsMining(),
		},
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-ctx.Done():
			return nil
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Accounts returns the current balances for all known accounts.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	dbAccounts := h.State.QueryAccounts()

	acts := make([]balance, len(dbAccounts))
	for i, act := range dbAccounts {
		acts[i] = balance{
			Address: string(act.AccountID),
			Name:    h.NS.Lookup(act.AccountID),
			Balance: act.Balance,
			Nonce:   act.Nonce,
		}
	}

	resp := accounts{
		LatestBlock: h.State.QueryStatus().LatestHash,
		Uncommitted: h.State.QueryMempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CreateWallet generates a new key pair. The private key is returned to the
// caller and never kept by the node.
func (h Handlers) CreateWallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	wlt, err := wallet.New()
	if err != nil {
		return err
	}

	h.Log.Infow("create wallet", "traceid", web.GetTraceID(ctx), "address", wlt.Address)

	resp := newWallet{
		Address:    string(wlt.Address),
		PublicKey:  wlt.PublicKey,
		PrivateKey: wlt.PrivateKey,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// Balance returns the confirmed balance for the account. Unknown accounts
// have a zero balance.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := database.ToAccountID(web.Param(r, "address"))
	if err != nil {
		return err
	}

	act := h.State.QueryAccount(accountID)

	resp := balance{
		Address: string(accountID),
		Name:    h.NS.Lookup(accountID),
		Balance: act.Balance,
		Nonce:   act.Nonce,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByAccount returns the blocks holding a transaction for the account.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := database.ToAccountID(web.Param(r, "address"))
	if err != nil {
		return err
	}

	dbBlocks, err := h.State.QueryBlocksByAccount(accountID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, blocks{Blocks: toBlocks(h.NS, dbBlocks)}, http.StatusOK)
}

// SubmitTransfer signs a transfer with the provided private key and adds it
// to the mempool.
func (h Handlers) SubmitTransfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req transfer
	if err := decode(r, &req); err != nil {
		return err
	}

	signedTx, id, err := h.State.SubmitTransfer(req.PrivateKey, database.AccountID(req.FromAddress), database.AccountID(req.ToAddress), req.Amount)
	if err != nil {
		return err
	}

	h.Log.Infow("submit transfer", "traceid", web.GetTraceID(ctx), "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value, "id", id)

	resp := submitted{
		Status:      "transaction added to mempool",
		ID:          id,
		Transaction: toTx(h.NS, signedTx),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitWalletTransaction adds a transaction signed by a wallet to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var signedTx database.SignedTx
	if err := decode(r, &signedTx); err != nil {
		return err
	}

	id, err := h.State.UpsertWalletTransaction(signedTx)
	if err != nil {
		return err
	}

	h.Log.Infow("submit signed tx", "traceid", web.GetTraceID(ctx), "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value, "id", id)

	resp := submitted{
		Status:      "transaction added to mempool",
		ID:          id,
		Transaction: toTx(h.NS, signedTx),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of pending transactions in selection order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toTxs(h.NS, h.State.QueryMempool()), http.StatusOK)
}

// MiningStatus returns the phase of the mining session.
func (h Handlers) MiningStatus(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	phase, miner := h.State.MiningStatus()

	resp := miningStatus{
		IsMining: h.State.IsMining(),
		Status:   string(phase),
		Miner:    string(miner),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StartMining starts a continuous mining session for the miner.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req startMining
	if err := decode(r, &req); err != nil {
		return err
	}

	if err := h.State.StartMining(database.AccountID(req.MinerAddress)); err != nil {
		return err
	}

	resp := miningStatus{
		IsMining: true,
		Status:   "mining started",
		Miner:    req.MinerAddress,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StopMining stops the mining session. No block is added once this returns.
func (h Handlers) StopMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := h.State.StopMining(); err != nil {
		return err
	}

	resp := miningStatus{
		IsMining: false,
		Status:   "mining stopped",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns the most recent blocks, latest first.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	limit := defaultBlockLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return errs.NewTrusted(fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
		}
		limit = min(n, maxBlockLimit)
	}

	return web.Respond(ctx, w, blocks{Blocks: toBlocks(h.NS, h.State.QueryBlocks(limit))}, http.StatusOK)
}

// =============================================================================

// decode decodes the request body and turns malformed documents into
// errors the caller can see.
func decode(r *http.Request, val any) error {
	if err := web.Decode(r, val); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}
	return nil
}
