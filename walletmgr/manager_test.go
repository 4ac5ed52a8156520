package walletmgr

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/eventbus"
	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/store"
	"github.com/dappforge/walletbridge/testhelper"
	"github.com/dappforge/walletbridge/types"
)

const testAccountHex = "0xabcd006e4b5ed41ddaf25c60f0f1bbbe7690ef01"

type managerHarness struct {
	mgr    *Manager
	prov   *testhelper.MockProvider
	sink   *testhelper.RecordingSink
	store  store.Store
	bus    *eventbus.Bus
	events *eventRecorder
}

type eventRecorder struct {
	lk     sync.Mutex
	events []*types.LifecycleEvent
}

func (r *eventRecorder) record(evt *types.LifecycleEvent) {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) byTopic(topic string) []*types.LifecycleEvent {
	r.lk.Lock()
	defer r.lk.Unlock()
	var out []*types.LifecycleEvent
	for _, evt := range r.events {
		if evt.Topic == topic {
			out = append(out, evt)
		}
	}
	return out
}

func newHarness(t *testing.T) *managerHarness {
	t.Helper()

	prov := testhelper.NewMockProvider()
	prov.SetAccounts(types.NewAccount(testAccountHex))
	prov.SetChainID(1)

	st := store.NewMemStore()
	bus := eventbus.NewBus()
	t.Cleanup(bus.Shutdown)

	rec := &eventRecorder{}
	for _, topic := range []string{
		types.TopicConnected,
		types.TopicDisconnected,
		types.TopicAccountsChanged,
		types.TopicChainChanged,
		types.TopicStateChanged,
	} {
		unsub := bus.Subscribe(topic, rec.record)
		t.Cleanup(unsub)
	}

	sink := testhelper.NewRecordingSink()
	validator := networks.NewValidator(networks.NewRegistry(), []uint64{1, 11155111})
	mgr := NewManager(prov, validator, st, bus, sink, config.DefaultConfig().UI)

	return &managerHarness{mgr: mgr, prov: prov, sink: sink, store: st, bus: bus, events: rec}
}

func (h *managerHarness) initQuiet(t *testing.T, ctx context.Context) {
	t.Helper()
	h.mgr.Init(ctx)
	h.sink.Reset()
}

func TestConnectWallet(t *testing.T) {
	ctx := context.Background()

	t.Run("success on supported chain", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{})
		require.Equal(t, types.NewAccount(testAccountHex), account)
		require.Equal(t, types.StateConnected, h.mgr.State())
		require.Equal(t, types.ChainID(1), h.mgr.ChainID())
		require.True(t, h.store.LoadBool(store.KeyConnected, false))

		last, ok := h.sink.LastButton()
		require.True(t, ok)
		require.Equal(t, account, last)

		notes := h.sink.NotificationsWith(types.SeveritySuccess)
		require.Len(t, notes, 1)
		require.Equal(t, "Wallet connected", notes[0].Message)

		connected := h.events.byTopic(types.TopicConnected)
		require.Len(t, connected, 1)
		var body types.ConnectedBody
		require.NoError(t, json.Unmarshal(connected[0].Payload, &body))
		require.Equal(t, account, body.Account)
		require.Equal(t, types.ChainID(1), body.ChainID)
	})

	t.Run("unsupported chain keeps account and surfaces one error", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetChainID(999)
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{})
		require.True(t, account.IsZero())
		require.Equal(t, types.StateNetworkMismatch, h.mgr.State())
		require.Equal(t, types.NewAccount(testAccountHex), h.mgr.CurrentAccount())
		require.False(t, h.store.LoadBool(store.KeyConnected, false))
		require.Empty(t, h.events.byTopic(types.TopicConnected))

		notes := h.sink.NotificationsWith(types.SeverityError)
		require.Len(t, notes, 1)
		require.Contains(t, notes[0].Message, "unsupported network 999")
		require.Contains(t, notes[0].Message, "Ethereum Mainnet")
		require.Contains(t, notes[0].Message, "Sepolia")
	})

	t.Run("user rejection is silent", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetConnectErr(&testhelper.RPCError{Code: 4001, Message: "User rejected the request."})
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{})
		require.True(t, account.IsZero())
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Empty(t, h.sink.Notifications())
	})

	t.Run("provider failure moves to error with one notification", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetConnectErr(errors.New("rpc timeout"))
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{})
		require.True(t, account.IsZero())
		require.Equal(t, types.StateError, h.mgr.State())
		require.True(t, h.mgr.CurrentAccount().IsZero())

		notes := h.sink.NotificationsWith(types.SeverityError)
		require.Len(t, notes, 1)
		require.Equal(t, "Failed to connect wallet. Please try again.", notes[0].Message)
	})

	t.Run("silent decline leaves disconnected", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetAccounts()
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{})
		require.True(t, account.IsZero())
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Empty(t, h.sink.Notifications())
	})

	t.Run("overlapping connects collapse to one attempt", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.prov.GateConnect()

		done := make(chan types.Account, 1)
		go func() {
			done <- h.mgr.ConnectWallet(ctx, ConnectOptions{})
		}()

		require.Eventually(t, func() bool {
			return h.mgr.State() == types.StateConnecting
		}, time.Second, 5*time.Millisecond)

		// second call while the first is pending is a no-op
		require.True(t, h.mgr.ConnectWallet(ctx, ConnectOptions{}).IsZero())
		require.Equal(t, 1, h.prov.ConnectCalls())

		h.prov.ReleaseConnect()
		require.Equal(t, types.NewAccount(testAccountHex), <-done)
		require.Equal(t, types.StateConnected, h.mgr.State())
	})
}

func TestInstallPrompt(t *testing.T) {
	ctx := context.Background()

	t.Run("desktop gets the install page", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetInstalled(false)
		h.initQuiet(t, ctx)

		account := h.mgr.ConnectWallet(ctx, ConnectOptions{
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		})
		require.True(t, account.IsZero())
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Equal(t, 0, h.prov.ConnectCalls())

		installs := h.sink.Installs()
		require.Len(t, installs, 1)
		require.False(t, installs[0].Mobile)
		require.Equal(t, "https://metamask.io/download/", installs[0].InstallURL)
		require.Empty(t, installs[0].DeepLink)
	})

	t.Run("mobile gets a deep link into the page", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetInstalled(false)
		h.initQuiet(t, ctx)

		h.mgr.ConnectWallet(ctx, ConnectOptions{
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
			PageURL:   "https://app.example.com/swap",
		})

		installs := h.sink.Installs()
		require.Len(t, installs, 1)
		require.True(t, installs[0].Mobile)
		require.Equal(t, "https://metamask.app.link/dapp/app.example.com/swap", installs[0].DeepLink)
	})
}

func TestDisconnectWallet(t *testing.T) {
	ctx := context.Background()

	h := newHarness(t)
	h.initQuiet(t, ctx)
	require.False(t, h.mgr.ConnectWallet(ctx, ConnectOptions{}).IsZero())
	h.sink.Reset()

	h.mgr.DisconnectWallet(ctx)
	require.Equal(t, types.StateDisconnected, h.mgr.State())
	require.True(t, h.mgr.CurrentAccount().IsZero())
	require.Equal(t, types.ChainID(0), h.mgr.ChainID())
	require.False(t, h.store.LoadBool(store.KeyConnected, false))
	require.Equal(t, 1, h.prov.DisconnectCalls())
	require.Len(t, h.events.byTopic(types.TopicDisconnected), 1)

	last, ok := h.sink.LastButton()
	require.True(t, ok)
	require.True(t, last.IsZero())

	notes := h.sink.NotificationsWith(types.SeverityInfo)
	require.Len(t, notes, 1)
	require.Equal(t, "Wallet disconnected", notes[0].Message)
}

func TestSilentResume(t *testing.T) {
	ctx := context.Background()

	t.Run("restores a prior session without prompting", func(t *testing.T) {
		h := newHarness(t)
		h.store.Save(store.KeyConnected, true)

		h.mgr.Init(ctx)
		require.Equal(t, types.StateConnected, h.mgr.State())
		require.Equal(t, types.NewAccount(testAccountHex), h.mgr.CurrentAccount())
		require.Equal(t, 0, h.prov.ConnectCalls())
		require.Len(t, h.events.byTopic(types.TopicConnected), 1)
	})

	t.Run("no authorized accounts clears the flag", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetAccounts()
		h.store.Save(store.KeyConnected, true)

		h.mgr.Init(ctx)
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.False(t, h.store.LoadBool(store.KeyConnected, false))
		require.Equal(t, 0, h.prov.ConnectCalls())
		require.Empty(t, h.sink.Installs())
	})

	t.Run("skipped without a flag", func(t *testing.T) {
		h := newHarness(t)

		h.mgr.Init(ctx)
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Equal(t, 0, h.prov.AccountsCalls())
	})

	t.Run("skipped when no wallet is present", func(t *testing.T) {
		h := newHarness(t)
		h.prov.SetInstalled(false)
		h.store.Save(store.KeyConnected, true)

		h.mgr.Init(ctx)
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Equal(t, 0, h.prov.AccountsCalls())
	})
}

func TestAccountsChanged(t *testing.T) {
	ctx := context.Background()
	second := types.NewAccount("0x52908400098527886e0f7030069857d2e4169ee7")

	t.Run("switch updates button and publishes", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.mgr.ConnectWallet(ctx, ConnectOptions{})
		h.sink.Reset()

		h.prov.EmitAccountsChanged([]types.Account{second})
		require.Equal(t, second, h.mgr.CurrentAccount())
		require.Equal(t, types.StateConnected, h.mgr.State())

		last, ok := h.sink.LastButton()
		require.True(t, ok)
		require.Equal(t, second, last)

		changed := h.events.byTopic(types.TopicAccountsChanged)
		require.Len(t, changed, 1)
		var body types.AccountsChangedBody
		require.NoError(t, json.Unmarshal(changed[0].Payload, &body))
		require.Equal(t, second, body.Account)
	})

	t.Run("same account is a no-op", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.mgr.ConnectWallet(ctx, ConnectOptions{})
		h.sink.Reset()

		h.prov.EmitAccountsChanged([]types.Account{types.NewAccount(testAccountHex)})
		require.Empty(t, h.sink.Buttons())
		require.Empty(t, h.events.byTopic(types.TopicAccountsChanged))
	})

	t.Run("revocation disconnects without calling the provider", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.mgr.ConnectWallet(ctx, ConnectOptions{})

		h.prov.EmitAccountsChanged(nil)
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.True(t, h.mgr.CurrentAccount().IsZero())
		require.False(t, h.store.LoadBool(store.KeyConnected, false))
		require.Equal(t, 0, h.prov.DisconnectCalls())
		require.Len(t, h.events.byTopic(types.TopicDisconnected), 1)
	})
}

func TestChainChanged(t *testing.T) {
	ctx := context.Background()

	t.Run("reload then resume on a supported chain", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.mgr.ConnectWallet(ctx, ConnectOptions{})
		h.sink.Reset()

		h.prov.EmitChainChanged(11155111)
		require.Equal(t, []string{"network changed"}, h.sink.Reloads())
		require.Equal(t, types.StateConnected, h.mgr.State())
		require.Equal(t, types.ChainID(11155111), h.mgr.ChainID())
		require.Equal(t, 0, h.prov.ConnectCalls())

		changed := h.events.byTopic(types.TopicChainChanged)
		require.Len(t, changed, 1)
		var body types.ChainChangedBody
		require.NoError(t, json.Unmarshal(changed[0].Payload, &body))
		require.Equal(t, types.StateConnected, body.OldState)
		require.Equal(t, types.StateConnected, body.NewState)
		require.Equal(t, types.ChainID(11155111), body.ChainID)
	})

	t.Run("switch to an unsupported chain lands in mismatch", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)
		h.mgr.ConnectWallet(ctx, ConnectOptions{})
		h.sink.Reset()

		h.prov.EmitChainChanged(999)
		require.Equal(t, types.StateNetworkMismatch, h.mgr.State())
		require.Equal(t, []string{"network changed"}, h.sink.Reloads())
		require.Len(t, h.sink.NotificationsWith(types.SeverityError), 1)
	})

	t.Run("no resume while disconnected", func(t *testing.T) {
		h := newHarness(t)
		h.initQuiet(t, ctx)

		h.prov.EmitChainChanged(11155111)
		require.Equal(t, types.StateDisconnected, h.mgr.State())
		require.Equal(t, []string{"network changed"}, h.sink.Reloads())
		require.Equal(t, 0, h.prov.AccountsCalls())
	})
}

func TestIsMobileAgent(t *testing.T) {
	require.True(t, isMobileAgent("Mozilla/5.0 (Linux; Android 14; Pixel 8)"))
	require.True(t, isMobileAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"))
	require.True(t, isMobileAgent("Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X)"))
	require.False(t, isMobileAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64)"))
	require.False(t, isMobileAgent(""))
}
