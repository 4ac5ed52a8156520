package testhelper

import (
	"context"
	"sync"

	"github.com/dappforge/walletbridge/provider"
	"github.com/dappforge/walletbridge/types"
)

var _ provider.Provider = (*MockProvider)(nil)

// MockProvider is a scripted wallet used in tests. Accounts, chain and
// failures are set up front; Connect can be parked on a gate to exercise
// overlapping calls.
type MockProvider struct {
	lk sync.Mutex

	installed  bool
	accounts   []types.Account
	chainID    types.ChainID
	connectErr error

	connectCalls    int
	accountsCalls   int
	disconnectCalls int

	gate chan struct{}

	accountsHandlers []func([]types.Account)
	chainHandlers    []func(types.ChainID)
}

func NewMockProvider() *MockProvider {
	return &MockProvider{installed: true}
}

func (m *MockProvider) SetInstalled(installed bool) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.installed = installed
}

func (m *MockProvider) SetAccounts(accounts ...types.Account) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.accounts = accounts
}

func (m *MockProvider) SetChainID(chainID types.ChainID) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.chainID = chainID
}

func (m *MockProvider) SetConnectErr(err error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.connectErr = err
}

// GateConnect makes Connect block until ReleaseConnect is called.
func (m *MockProvider) GateConnect() {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.gate = make(chan struct{})
}

func (m *MockProvider) ReleaseConnect() {
	m.lk.Lock()
	gate := m.gate
	m.gate = nil
	m.lk.Unlock()
	if gate != nil {
		close(gate)
	}
}

func (m *MockProvider) ConnectCalls() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.connectCalls
}

func (m *MockProvider) AccountsCalls() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.accountsCalls
}

func (m *MockProvider) DisconnectCalls() int {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.disconnectCalls
}

func (m *MockProvider) IsInstalled(ctx context.Context) bool {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.installed
}

func (m *MockProvider) Connect(ctx context.Context) (types.Account, error) {
	m.lk.Lock()
	m.connectCalls++
	gate := m.gate
	err := m.connectErr
	var account types.Account
	if len(m.accounts) > 0 {
		account = m.accounts[0]
	}
	m.lk.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return types.NoAccount, ctx.Err()
		}
	}
	if err != nil {
		return types.NoAccount, err
	}
	return account, nil
}

func (m *MockProvider) Disconnect(ctx context.Context) error {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.disconnectCalls++
	return nil
}

func (m *MockProvider) Accounts(ctx context.Context) ([]types.Account, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	m.accountsCalls++
	out := make([]types.Account, len(m.accounts))
	copy(out, m.accounts)
	return out, nil
}

func (m *MockProvider) ChainID(ctx context.Context) (types.ChainID, error) {
	m.lk.Lock()
	defer m.lk.Unlock()
	return m.chainID, nil
}

func (m *MockProvider) OnAccountsChanged(h func([]types.Account)) func() {
	m.lk.Lock()
	defer m.lk.Unlock()
	idx := len(m.accountsHandlers)
	m.accountsHandlers = append(m.accountsHandlers, h)
	return func() {
		m.lk.Lock()
		defer m.lk.Unlock()
		m.accountsHandlers[idx] = nil
	}
}

func (m *MockProvider) OnChainChanged(h func(types.ChainID)) func() {
	m.lk.Lock()
	defer m.lk.Unlock()
	idx := len(m.chainHandlers)
	m.chainHandlers = append(m.chainHandlers, h)
	return func() {
		m.lk.Lock()
		defer m.lk.Unlock()
		m.chainHandlers[idx] = nil
	}
}

// EmitAccountsChanged also rewrites the scripted account list, the way a real
// wallet's answers change along with the event.
func (m *MockProvider) EmitAccountsChanged(accounts []types.Account) {
	m.lk.Lock()
	m.accounts = accounts
	hs := make([]func([]types.Account), len(m.accountsHandlers))
	copy(hs, m.accountsHandlers)
	m.lk.Unlock()

	for _, h := range hs {
		if h != nil {
			h(accounts)
		}
	}
}

func (m *MockProvider) EmitChainChanged(chainID types.ChainID) {
	m.lk.Lock()
	m.chainID = chainID
	hs := make([]func(types.ChainID), len(m.chainHandlers))
	copy(hs, m.chainHandlers)
	m.lk.Unlock()

	for _, h := range hs {
		if h != nil {
			h(chainID)
		}
	}
}

func (m *MockProvider) Close() {}
