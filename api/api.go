package api

import (
	"context"

	"github.com/dappforge/walletbridge/networks"
	"github.com/dappforge/walletbridge/types"
	"github.com/dappforge/walletbridge/walletmgr"
)

// BridgeState is the externally visible snapshot of the connection machine.
type BridgeState struct {
	State   types.ConnectionState `json:"state"`
	Account types.Account         `json:"account,omitempty"`
	ChainID types.ChainID         `json:"chainId,omitempty"`
	Network string                `json:"network,omitempty"`
}

// IWalletBridge is the JSON-RPC surface consumed by ui processes and the cli.
type IWalletBridge interface {
	ConnectWallet(ctx context.Context, opts walletmgr.ConnectOptions) (*BridgeState, error)
	DisconnectWallet(ctx context.Context) (*BridgeState, error)
	WalletState(ctx context.Context) (*BridgeState, error)
	ListNetworks(ctx context.Context) ([]networks.NetworkInfo, error)
	ListenWalletEvents(ctx context.Context) (<-chan *types.LifecycleEvent, error)
}

// WalletBridgeStruct is the client-side rpc proxy, filled in by
// jsonrpc.NewMergeClient.
type WalletBridgeStruct struct {
	Internal struct {
		ConnectWallet      func(ctx context.Context, opts walletmgr.ConnectOptions) (*BridgeState, error)
		DisconnectWallet   func(ctx context.Context) (*BridgeState, error)
		WalletState        func(ctx context.Context) (*BridgeState, error)
		ListNetworks       func(ctx context.Context) ([]networks.NetworkInfo, error)
		ListenWalletEvents func(ctx context.Context) (<-chan *types.LifecycleEvent, error)
	}
}

var _ IWalletBridge = (*WalletBridgeStruct)(nil)

func (s *WalletBridgeStruct) ConnectWallet(ctx context.Context, opts walletmgr.ConnectOptions) (*BridgeState, error) {
	return s.Internal.ConnectWallet(ctx, opts)
}

func (s *WalletBridgeStruct) DisconnectWallet(ctx context.Context) (*BridgeState, error) {
	return s.Internal.DisconnectWallet(ctx)
}

func (s *WalletBridgeStruct) WalletState(ctx context.Context) (*BridgeState, error) {
	return s.Internal.WalletState(ctx)
}

func (s *WalletBridgeStruct) ListNetworks(ctx context.Context) ([]networks.NetworkInfo, error) {
	return s.Internal.ListNetworks(ctx)
}

func (s *WalletBridgeStruct) ListenWalletEvents(ctx context.Context) (<-chan *types.LifecycleEvent, error) {
	return s.Internal.ListenWalletEvents(ctx)
}
