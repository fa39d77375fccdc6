package public

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/wtfcosmos/blockchain/foundation/blockchain/state"
	"github.com/wtfcosmos/blockchain/foundation/events"
	"github.com/wtfcosmos/blockchain/foundation/nameservice"
	"github.com/wtfcosmos/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const group = "api"

	app.Handle(http.MethodGet, group, "", pbl.Status)
	app.Handle(http.MethodGet, group, "/events", pbl.Events)
	app.Handle(http.MethodGet, group, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, group, "/accounts", pbl.Accounts)
	app.Handle(http.MethodPost, group, "/wallets", pbl.CreateWallet)
	app.Handle(http.MethodGet, group, "/wallets/:address/balance", pbl.Balance)
	app.Handle(http.MethodGet, group, "/wallets/:address/blocks", pbl.BlocksByAccount)
	app.Handle(http.MethodPost, group, "/transactions", pbl.SubmitTransfer)
	app.Handle(http.MethodPost, group, "/transactions/signed", pbl.SubmitWalletTransaction)
	app.Handle(http.MethodGet, group, "/transactions/pending", pbl.Mempool)
	app.Handle(http.MethodGet, group, "/mining/status", pbl.MiningStatus)
	app.Handle(http.MethodPost, group, "/mining/start", pbl.StartMining)
	app.Handle(http.MethodPost, group, "/mining/stop", pbl.StopMining)
	app.Handle(http.MethodGet, group, "/blockchain/blocks", pbl.Blocks)
}
