package walletmgr

import (
	"context"
	"strings"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/eventbus"
	"github.com/dappforge/walletbridge/metrics"
	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/notify"
	"github.com/dappforge/walletbridge/provider"
	"github.com/dappforge/walletbridge/store"
	"github.com/dappforge/walletbridge/types"
)

var log = logging.Logger("walletmgr")

// ConnectOptions describe the trigger behind a connect request. The user
// agent decides the install offer flavor, the page url feeds the mobile deep
// link.
type ConnectOptions struct {
	UserAgent string `json:"userAgent,omitempty"`
	PageURL   string `json:"pageUrl,omitempty"`
}

// Manager owns the wallet connection state machine. It drives the provider,
// consults the network validator, persists the connected flag, updates the
// notification sink and publishes lifecycle events on the bus.
//
// state and currentAccount are mutated from API calls and from provider
// watcher callbacks, so every access goes through the mutex and nothing is
// cached across provider round-trips.
type Manager struct {
	provider  provider.Provider
	validator *networks.Validator
	store     store.Store
	bus       *eventbus.Bus
	sink      notify.Sink
	ui        *config.UIConfig

	lk             sync.Mutex
	state          types.ConnectionState
	currentAccount types.Account
	chainID        types.ChainID

	ctx    context.Context
	unsubs []func()
}

func NewManager(p provider.Provider, v *networks.Validator, st store.Store, bus *eventbus.Bus, sink notify.Sink, ui *config.UIConfig) *Manager {
	return &Manager{
		provider:  p,
		validator: v,
		store:     st,
		bus:       bus,
		sink:      sink,
		ui:        ui,
		state:     types.StateDisconnected,
	}
}

// Init wires the provider event handlers and attempts silent reconnection
// when a previous session left the connected flag behind. It never prompts
// the user.
func (m *Manager) Init(ctx context.Context) {
	m.ctx = ctx

	m.unsubs = append(m.unsubs,
		m.provider.OnAccountsChanged(m.handleAccountsChanged),
		m.provider.OnChainChanged(m.handleChainChanged),
	)

	if m.store.LoadBool(store.KeyConnected, false) && m.provider.IsInstalled(ctx) {
		m.resume(ctx)
	}

	m.sink.UpdateWalletButton(m.CurrentAccount())
}

// Cleanup detaches the provider handlers. The caller owns provider and store
// teardown.
func (m *Manager) Cleanup() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

func (m *Manager) State() types.ConnectionState {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.state
}

func (m *Manager) CurrentAccount() types.Account {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.currentAccount
}

func (m *Manager) ChainID() types.ChainID {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.chainID
}

// setState moves the machine and publishes wallet-state-changed when the
// value actually changed.
func (m *Manager) setState(newState types.ConnectionState) {
	m.lk.Lock()
	oldState := m.state
	if oldState == newState {
		m.lk.Unlock()
		return
	}
	m.state = newState
	m.lk.Unlock()

	metrics.WalletState.Set(m.ctxOrBackground(), stateGauge(newState))
	m.bus.Dispatch(types.TopicStateChanged, &types.StateChangedBody{
		OldState: oldState,
		NewState: newState,
	})
}

// beginConnect is the re-entrancy guard: at most one connect attempt may be
// in flight, later calls are no-ops while the first is still pending.
func (m *Manager) beginConnect() bool {
	m.lk.Lock()
	if m.state == types.StateConnecting {
		m.lk.Unlock()
		return false
	}
	oldState := m.state
	m.state = types.StateConnecting
	m.lk.Unlock()

	metrics.WalletState.Set(m.ctxOrBackground(), stateGauge(types.StateConnecting))
	m.bus.Dispatch(types.TopicStateChanged, &types.StateChangedBody{
		OldState: oldState,
		NewState: types.StateConnecting,
	})
	return true
}

// ConnectWallet runs the user-triggered connection flow. It resolves to the
// connected account or zero; failures surface through the sink and the state
// machine, never as a returned error.
func (m *Manager) ConnectWallet(ctx context.Context, opts ConnectOptions) types.Account {
	if !m.beginConnect() {
		log.Debug("connect already in flight, ignoring")
		return m.CurrentAccount()
	}

	start := time.Now()
	stats.Record(ctx, metrics.ConnectAttempt.M(1))

	if !m.provider.IsInstalled(ctx) {
		m.setState(types.StateDisconnected)
		m.promptInstall(opts)
		return types.NoAccount
	}

	account, err := m.provider.Connect(ctx)
	if err != nil {
		if provider.IsUserRejection(err) {
			// benign cancellation, no error surfaced
			log.Infof("user rejected wallet connection: %v", err)
			stats.Record(ctx, metrics.ConnectRejected.M(1))
			m.setState(types.StateDisconnected)
			return types.NoAccount
		}
		log.Errorf("wallet connection failed: %v", err)
		m.sink.ShowNotification("Failed to connect wallet. Please try again.", types.SeverityError)
		m.setState(types.StateError)
		m.recordDuration(ctx, start, "error")
		return types.NoAccount
	}
	if account.IsZero() {
		// the wallet declined without an error
		m.setState(types.StateDisconnected)
		return types.NoAccount
	}

	m.lk.Lock()
	m.currentAccount = account
	m.lk.Unlock()

	chain, err := m.provider.ChainID(ctx)
	if err != nil {
		log.Errorf("chain id query failed: %v", err)
		m.lk.Lock()
		m.currentAccount = types.NoAccount
		m.lk.Unlock()
		m.sink.ShowNotification("Failed to connect wallet. Please try again.", types.SeverityError)
		m.setState(types.StateError)
		m.recordDuration(ctx, start, "error")
		return types.NoAccount
	}

	if !m.completeConnection(ctx, account, chain) {
		m.recordDuration(ctx, start, "network_mismatch")
		return types.NoAccount
	}

	m.sink.ShowNotification("Wallet connected", types.SeveritySuccess)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.AccountKey, account.String()),
		tag.Upsert(metrics.NetworkKey, chain.String()),
	}, metrics.ConnectOK.M(1))
	m.recordDuration(ctx, start, "ok")
	return account
}

// completeConnection validates the chain and finishes the transition shared
// by the interactive flow and silent resume. It reports whether the manager
// reached connected.
func (m *Manager) completeConnection(ctx context.Context, account types.Account, chain types.ChainID) bool {
	if err := m.validator.Validate(chain); err != nil {
		var mismatch *networks.MismatchError
		if errors.As(err, &mismatch) {
			log.Warnf("network validation failed: %v", mismatch)
			_ = stats.RecordWithTags(ctx, []tag.Mutator{
				tag.Upsert(metrics.NetworkKey, chain.String()),
			}, metrics.NetworkMismatch.M(1))
		}
		// the account stays set so the ui can offer a network switch
		// without prompting for access again
		m.lk.Lock()
		m.currentAccount = account
		m.chainID = chain
		m.lk.Unlock()
		m.sink.ShowNotification(err.Error(), types.SeverityError)
		m.setState(types.StateNetworkMismatch)
		return false
	}

	m.lk.Lock()
	m.currentAccount = account
	m.chainID = chain
	m.lk.Unlock()

	m.store.Save(store.KeyConnected, true)
	m.setState(types.StateConnected)
	m.sink.UpdateWalletButton(account)
	m.bus.Dispatch(types.TopicConnected, &types.ConnectedBody{Account: account, ChainID: chain})
	return true
}

// DisconnectWallet tears the connection down from any state. The outcome is
// always disconnected with no account and a cleared persisted flag.
func (m *Manager) DisconnectWallet(ctx context.Context) {
	account := m.CurrentAccount()
	m.disconnect(ctx, true)
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.AccountKey, account.String()),
	}, metrics.Disconnect.M(1))
}

// disconnect is the shared teardown path. callProvider is false when the
// wallet itself already dropped the account, re-invoking Disconnect then
// would be redundant.
func (m *Manager) disconnect(ctx context.Context, callProvider bool) {
	if callProvider {
		if err := m.provider.Disconnect(ctx); err != nil {
			log.Warnf("provider disconnect: %v", err)
		}
	}

	m.lk.Lock()
	m.currentAccount = types.NoAccount
	m.chainID = 0
	m.lk.Unlock()

	m.store.Remove(store.KeyConnected)
	m.setState(types.StateDisconnected)
	m.sink.UpdateWalletButton(types.NoAccount)
	m.bus.Dispatch(types.TopicDisconnected, &types.DisconnectedBody{})
	m.sink.ShowNotification("Wallet disconnected", types.SeverityInfo)
}

// resume re-establishes connection state from a prior authorization without
// prompting. Any failure clears the flag instead of retrying, so a broken
// session does not re-fail on every start.
func (m *Manager) resume(ctx context.Context) {
	outcome := "failed"
	defer func() {
		_ = stats.RecordWithTags(ctx, []tag.Mutator{
			tag.Upsert(metrics.OutcomeKey, outcome),
		}, metrics.SilentResume.M(1))
	}()

	accounts, err := m.provider.Accounts(ctx)
	if err != nil {
		log.Warnf("silent reconnect: account query failed: %v", err)
		m.store.Remove(store.KeyConnected)
		m.setState(types.StateDisconnected)
		return
	}
	if len(accounts) == 0 {
		log.Debug("silent reconnect: no authorized accounts")
		m.store.Remove(store.KeyConnected)
		m.setState(types.StateDisconnected)
		return
	}

	chain, err := m.provider.ChainID(ctx)
	if err != nil {
		log.Warnf("silent reconnect: chain query failed: %v", err)
		m.store.Remove(store.KeyConnected)
		m.setState(types.StateDisconnected)
		return
	}

	if m.completeConnection(ctx, accounts[0], chain) {
		outcome = "ok"
		log.Infof("silent reconnect: restored %s on chain %s", accounts[0].Truncate(), chain)
	} else {
		outcome = "network_mismatch"
	}
}

// handleAccountsChanged reacts to the wallet switching or revoking accounts
// behind the manager's back.
func (m *Manager) handleAccountsChanged(accounts []types.Account) {
	ctx := m.ctxOrBackground()

	if len(accounts) == 0 {
		log.Info("wallet revoked all accounts")
		m.disconnect(ctx, false)
		return
	}

	next := accounts[0]
	m.lk.Lock()
	if next == m.currentAccount {
		m.lk.Unlock()
		return
	}
	m.currentAccount = next
	m.lk.Unlock()

	log.Infof("active account changed to %s", next.Truncate())
	m.sink.UpdateWalletButton(next)
	m.bus.Dispatch(types.TopicAccountsChanged, &types.AccountsChangedBody{Account: next})
}

// handleChainChanged treats a live chain swap as untrusted: page-side
// listeners are told to reload, and the manager rebuilds its state from
// scratch the same way a fresh start would.
func (m *Manager) handleChainChanged(chain types.ChainID) {
	ctx := m.ctxOrBackground()
	oldState := m.State()

	log.Warnf("chain changed to %s, requesting reload", chain)
	m.sink.RequestReload("network changed")

	m.lk.Lock()
	m.currentAccount = types.NoAccount
	m.chainID = 0
	m.lk.Unlock()
	m.setState(types.StateDisconnected)

	if m.store.LoadBool(store.KeyConnected, false) && m.provider.IsInstalled(ctx) {
		m.resume(ctx)
	}
	m.sink.UpdateWalletButton(m.CurrentAccount())

	m.bus.Dispatch(types.TopicChainChanged, &types.ChainChangedBody{
		OldState: oldState,
		NewState: m.State(),
		ChainID:  chain,
	})
}

// promptInstall offers the wallet install page, or a deep link into the
// wallet's in-app browser for mobile agents. Missing extension is a
// recoverable condition, not a fault.
func (m *Manager) promptInstall(opts ConnectOptions) {
	prompt := types.InstallPrompt{Mobile: isMobileAgent(opts.UserAgent)}
	if prompt.Mobile {
		prompt.DeepLink = m.ui.DeepLinkURL + stripScheme(opts.PageURL)
	} else {
		prompt.InstallURL = m.ui.InstallURL
	}
	m.sink.PromptInstall(prompt)
}

func (m *Manager) recordDuration(ctx context.Context, start time.Time, outcome string) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.OutcomeKey, outcome),
	}, metrics.ConnectDuration.M(metrics.SinceInMilliseconds(start)))
}

func (m *Manager) ctxOrBackground() context.Context {
	if m.ctx != nil {
		return m.ctx
	}
	return context.Background()
}

func stateGauge(s types.ConnectionState) int64 {
	switch s {
	case types.StateDisconnected:
		return 0
	case types.StateConnecting:
		return 1
	case types.StateConnected:
		return 2
	case types.StateNetworkMismatch:
		return 3
	default:
		return 4
	}
}

func isMobileAgent(ua string) bool {
	ua = strings.ToLower(ua)
	for _, marker := range []string{"mobi", "android", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			return true
		}
	}
	return false
}

func stripScheme(url string) string {
	url = strings.TrimPrefix(url, "https://")
	return strings.TrimPrefix(url, "http://")
}
