package api

import (
	"context"

	logging "github.com/ipfs/go-log/v2"

	"github.com/dappforge/walletbridge/eventbus"
	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/types"
	"github.com/dappforge/walletbridge/walletmgr"
)

var log = logging.Logger("api")

var lifecycleTopics = []string{
	types.TopicConnected,
	types.TopicDisconnected,
	types.TopicChainChanged,
	types.TopicAccountsChanged,
	types.TopicStateChanged,
}

var _ IWalletBridge = (*BridgeAPI)(nil)

// BridgeAPI implements the rpc surface on top of the manager and bus.
type BridgeAPI struct {
	mgr       *walletmgr.Manager
	bus       *eventbus.Bus
	registry  *networks.Registry
	validator *networks.Validator
}

func NewBridgeAPI(mgr *walletmgr.Manager, bus *eventbus.Bus, registry *networks.Registry, validator *networks.Validator) *BridgeAPI {
	return &BridgeAPI{mgr: mgr, bus: bus, registry: registry, validator: validator}
}

func (a *BridgeAPI) snapshot() *BridgeState {
	state := &BridgeState{
		State:   a.mgr.State(),
		Account: a.mgr.CurrentAccount(),
		ChainID: a.mgr.ChainID(),
	}
	if state.ChainID != 0 {
		state.Network = a.registry.Name(state.ChainID)
	}
	return state
}

func (a *BridgeAPI) ConnectWallet(ctx context.Context, opts walletmgr.ConnectOptions) (*BridgeState, error) {
	a.mgr.ConnectWallet(ctx, opts)
	return a.snapshot(), nil
}

func (a *BridgeAPI) DisconnectWallet(ctx context.Context) (*BridgeState, error) {
	a.mgr.DisconnectWallet(ctx)
	return a.snapshot(), nil
}

func (a *BridgeAPI) WalletState(ctx context.Context) (*BridgeState, error) {
	return a.snapshot(), nil
}

func (a *BridgeAPI) ListNetworks(ctx context.Context) ([]networks.NetworkInfo, error) {
	supported := a.validator.Supported()
	infos := make([]networks.NetworkInfo, 0, len(supported))
	for _, id := range supported {
		if info, ok := a.registry.Lookup(id); ok {
			infos = append(infos, info)
			continue
		}
		infos = append(infos, networks.NetworkInfo{Name: a.registry.Name(id), ChainID: id})
	}
	return infos, nil
}

// ListenWalletEvents relays every lifecycle topic into a channel for the
// lifetime of the caller's context. A listener that cannot keep up loses
// events rather than stalling dispatch.
func (a *BridgeAPI) ListenWalletEvents(ctx context.Context) (<-chan *types.LifecycleEvent, error) {
	out := make(chan *types.LifecycleEvent, 32)

	unsubs := make([]func(), 0, len(lifecycleTopics))
	for _, topic := range lifecycleTopics {
		unsubs = append(unsubs, a.bus.Subscribe(topic, func(evt *types.LifecycleEvent) {
			select {
			case out <- evt:
			default:
				log.Warnf("event listener lagging, dropped %s", evt.Topic)
			}
		}))
	}

	go func() {
		<-ctx.Done()
		for _, unsub := range unsubs {
			unsub()
		}
		close(out)
	}()

	return out, nil
}
