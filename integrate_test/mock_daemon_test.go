package integrate

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/filecoin-project/go-jsonrpc"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"

	"github.com/dappforge/walletbridge/api"
	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/eventbus"
	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/notify"
	"github.com/dappforge/walletbridge/store"
	"github.com/dappforge/walletbridge/testhelper"
	"github.com/dappforge/walletbridge/types"
	"github.com/dappforge/walletbridge/walletmgr"
)

var log = logging.Logger("mock main")

// daemon is an in-process walletbridge wired to a scripted wallet, serving
// the real rpc surface over a test listener.
type daemon struct {
	URL      string
	Provider *testhelper.MockProvider
	Sink     *testhelper.RecordingSink
	Hub      *notify.Hub
}

func setupDaemon(t *testing.T, ctx context.Context, supported []uint64) *daemon {
	t.Helper()

	prov := testhelper.NewMockProvider()
	prov.SetAccounts(types.NewAccount("0x52908400098527886e0f7030069857d2e4169ee7"))
	prov.SetChainID(1)

	st := store.NewMemStore()
	bus := eventbus.NewBus()
	t.Cleanup(bus.Shutdown)

	registry := networks.NewRegistry()
	validator := networks.NewValidator(registry, supported)

	ui := config.DefaultConfig().UI
	hub := notify.NewHub(ui)
	t.Cleanup(hub.Close)
	sink := testhelper.NewRecordingSink()

	mgr := walletmgr.NewManager(prov, validator, st, bus, notify.Multi{sink, hub}, ui)
	mgr.Init(ctx)
	t.Cleanup(mgr.Cleanup)

	bridgeAPI := api.NewBridgeAPI(mgr, bus, registry, validator)

	router := mux.NewRouter()
	rpcServer := jsonrpc.NewServer()
	rpcServer.Register("WalletBridge", bridgeAPI)
	router.Handle("/rpc/v1", rpcServer)
	router.Handle("/ws", hub)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	log.Infof("mock walletbridge listening on %s", srv.URL)

	return &daemon{
		URL:      "ws" + strings.TrimPrefix(srv.URL, "http"),
		Provider: prov,
		Sink:     sink,
		Hub:      hub,
	}
}

// dialBridge connects the client proxy over websocket, the same path the cli
// takes.
func dialBridge(t *testing.T, ctx context.Context, d *daemon) api.IWalletBridge {
	t.Helper()

	var bridge api.WalletBridgeStruct
	closer, err := jsonrpc.NewMergeClient(ctx, d.URL+"/rpc/v1",
		"WalletBridge", []interface{}{&bridge.Internal}, nil)
	if err != nil {
		t.Fatalf("dial bridge: %v", err)
	}
	t.Cleanup(closer)
	return &bridge
}
