package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/jpillora/backoff"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/types"
)

// rpcCaller is the slice of rpc.Client the provider needs. Tests substitute
// a scripted implementation.
type rpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

type dialFunc func(ctx context.Context, endpoint string) (rpcCaller, error)

func dialRPC(ctx context.Context, endpoint string) (rpcCaller, error) {
	return rpc.DialContext(ctx, endpoint)
}

// session is the signer-capable binding resolved eagerly on connect, so
// later reads reuse the authorized account without prompting again.
type session struct {
	account types.Account
}

var _ Provider = (*ExtensionProvider)(nil)

// ExtensionProvider adapts a real wallet endpoint speaking the injected
// provider protocol (eth_requestAccounts, eth_accounts, eth_chainId). Account
// and chain change events come from a polling watcher that diffs the wallet's
// answers, since plain JSON-RPC has no native accountsChanged push.
type ExtensionProvider struct {
	endpoint     string
	vendor       string
	pollInterval time.Duration
	dial         dialFunc

	lk           sync.Mutex
	caller       rpcCaller
	session      *session
	lastAccounts []types.Account
	lastChain    types.ChainID
	baselined    bool

	accountsEv *emitter
	chainEv    *emitter

	cancel context.CancelFunc
	done   chan struct{}
}

func NewExtensionProvider(ctx context.Context, cfg *config.ProviderConfig) *ExtensionProvider {
	return newExtensionProvider(ctx, cfg, dialRPC)
}

func newExtensionProvider(ctx context.Context, cfg *config.ProviderConfig, dial dialFunc) *ExtensionProvider {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &ExtensionProvider{
		endpoint:     cfg.Endpoint,
		vendor:       cfg.Vendor,
		pollInterval: pollInterval,
		dial:         dial,
		accountsEv:   newEmitter(),
		chainEv:      newEmitter(),
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	go p.watch(ctx)
	return p
}

func (p *ExtensionProvider) ensureCaller(ctx context.Context) (rpcCaller, error) {
	p.lk.Lock()
	defer p.lk.Unlock()
	if p.caller != nil {
		return p.caller, nil
	}
	caller, err := p.dial(ctx, p.endpoint)
	if err != nil {
		return nil, err
	}
	p.caller = caller
	return caller, nil
}

func (p *ExtensionProvider) IsInstalled(ctx context.Context) bool {
	caller, err := p.ensureCaller(ctx)
	if err != nil {
		log.Debugf("wallet endpoint %s unreachable: %v", p.endpoint, err)
		return false
	}

	// the vendor flag check, web3_clientVersion stands in for isMetaMask
	var version string
	if err := caller.CallContext(ctx, &version, "web3_clientVersion"); err != nil {
		log.Debugf("wallet vendor query failed: %v", err)
		return false
	}
	if version == "" {
		return false
	}
	if p.vendor != "" && !strings.Contains(strings.ToLower(version), strings.ToLower(p.vendor)) {
		log.Warnf("wallet at %s identifies as %q, expected %q", p.endpoint, version, p.vendor)
		return false
	}
	return true
}

func (p *ExtensionProvider) Connect(ctx context.Context) (types.Account, error) {
	caller, err := p.ensureCaller(ctx)
	if err != nil {
		return types.NoAccount, &ConnectionError{Err: err}
	}

	// may suspend until the user answers the wallet prompt, no timeout here
	var raw []string
	if err := caller.CallContext(ctx, &raw, "eth_requestAccounts"); err != nil {
		return types.NoAccount, &ConnectionError{Err: err}
	}
	if len(raw) == 0 {
		return types.NoAccount, nil
	}

	account := types.NewAccount(raw[0])
	if account.IsZero() {
		return types.NoAccount, &ConnectionError{Err: errInvalidAccount(raw[0])}
	}

	p.lk.Lock()
	p.session = &session{account: account}
	// seed the watcher baseline so the approval itself does not replay as
	// an accountsChanged event
	p.lastAccounts = []types.Account{account}
	p.baselined = true
	p.lk.Unlock()

	return account, nil
}

func (p *ExtensionProvider) Disconnect(ctx context.Context) error {
	p.lk.Lock()
	p.session = nil
	p.lk.Unlock()
	return nil
}

func (p *ExtensionProvider) Accounts(ctx context.Context) ([]types.Account, error) {
	caller, err := p.ensureCaller(ctx)
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := caller.CallContext(ctx, &raw, "eth_accounts"); err != nil {
		return nil, err
	}
	accounts := make([]types.Account, 0, len(raw))
	for _, r := range raw {
		if a := types.NewAccount(r); !a.IsZero() {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (p *ExtensionProvider) ChainID(ctx context.Context) (types.ChainID, error) {
	caller, err := p.ensureCaller(ctx)
	if err != nil {
		return 0, err
	}

	var result hexutil.Big
	if err := caller.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return 0, err
	}
	return types.ChainID(result.ToInt().Uint64()), nil
}

func (p *ExtensionProvider) OnAccountsChanged(h func([]types.Account)) func() {
	return p.accountsEv.subscribe(func(v interface{}) {
		h(v.([]types.Account))
	})
}

func (p *ExtensionProvider) OnChainChanged(h func(types.ChainID)) func() {
	return p.chainEv.subscribe(func(v interface{}) {
		h(v.(types.ChainID))
	})
}

func (p *ExtensionProvider) Close() {
	p.cancel()
	<-p.done

	p.lk.Lock()
	defer p.lk.Unlock()
	if p.caller != nil {
		p.caller.Close()
		p.caller = nil
	}
}

// watch polls the wallet and emits diffs against the last observed accounts
// and chain. The first successful poll only records the baseline: the wallet
// replays no history and neither do we.
func (p *ExtensionProvider) watch(ctx context.Context) {
	defer close(p.done)

	retry := &backoff.Backoff{
		Min:    p.pollInterval,
		Max:    time.Minute,
		Factor: 2,
		Jitter: true,
	}

	for {
		wait := p.pollInterval
		if err := p.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			wait = retry.Duration()
			log.Debugf("wallet poll failed: %v (next in %s)", err, wait)
		} else {
			retry.Reset()
		}

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

func (p *ExtensionProvider) pollOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.pollInterval)
	defer cancel()

	accounts, err := p.Accounts(ctx)
	if err != nil {
		return err
	}
	chain, err := p.ChainID(ctx)
	if err != nil {
		return err
	}

	p.lk.Lock()
	first := !p.baselined
	accountsChanged := !sameAccounts(p.lastAccounts, accounts)
	chainChanged := p.lastChain != chain && p.lastChain != 0
	p.lastAccounts = accounts
	p.lastChain = chain
	p.baselined = true
	p.lk.Unlock()

	if first {
		return nil
	}
	if accountsChanged {
		p.accountsEv.emit(accounts)
	}
	if chainChanged {
		p.chainEv.emit(chain)
	}
	return nil
}

func sameAccounts(a, b []types.Account) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type errInvalidAccount string

func (e errInvalidAccount) Error() string {
	return "wallet returned invalid account address " + string(e)
}
