package provider

import (
	"context"

	"github.com/dappforge/walletbridge/types"
)

var _ Provider = (*NullProvider)(nil)

// NullProvider is the no-wallet variant. It reports not installed, connects
// to nothing and emits nothing, so environments without a wallet behave like
// a wallet whose user never approves.
type NullProvider struct{}

func NewNullProvider() *NullProvider {
	return &NullProvider{}
}

func (*NullProvider) IsInstalled(ctx context.Context) bool {
	return false
}

func (*NullProvider) Connect(ctx context.Context) (types.Account, error) {
	log.Warn("connect requested but no wallet is present")
	return types.NoAccount, nil
}

func (*NullProvider) Disconnect(ctx context.Context) error {
	return nil
}

func (*NullProvider) Accounts(ctx context.Context) ([]types.Account, error) {
	return nil, nil
}

func (*NullProvider) ChainID(ctx context.Context) (types.ChainID, error) {
	return 0, nil
}

func (*NullProvider) OnAccountsChanged(func([]types.Account)) func() {
	return func() {}
}

func (*NullProvider) OnChainChanged(func(types.ChainID)) func() {
	return func() {}
}

func (*NullProvider) Close() {}
