package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/types"
)

var log = logging.Logger("provider")

// Provider abstracts an injected wallet. The concrete variant talks to a
// wallet endpoint over JSON-RPC, the null variant stands in when no wallet is
// configured so callers need no nil checks.
type Provider interface {
	// IsInstalled reports whether a wallet is reachable and identifies
	// itself as the expected vendor.
	IsInstalled(ctx context.Context) bool
	// Connect requests account access. It may block indefinitely on user
	// approval; callers must not assume bounded completion. A zero account
	// with nil error means the wallet silently declined.
	Connect(ctx context.Context) (types.Account, error)
	// Disconnect tears down the local session. Best effort, the wallet
	// protocol has no explicit disconnect.
	Disconnect(ctx context.Context) error
	// Accounts lists the authorized accounts without prompting the user.
	Accounts(ctx context.Context) ([]types.Account, error)
	ChainID(ctx context.Context) (types.ChainID, error)

	OnAccountsChanged(h func(accounts []types.Account)) (unsubscribe func())
	OnChainChanged(h func(chainID types.ChainID)) (unsubscribe func())

	Close()
}

// ConnectionError wraps any wallet failure during Connect not otherwise
// classified.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("wallet connection failed: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// userRejectedCode is the EIP-1193 userRejectedRequest error code.
const userRejectedCode = 4001

// IsUserRejection reports whether err is the user declining the request in
// the wallet. The structured provider code is checked first; the message
// substring is kept as a fallback for wallets that do not set codes.
func IsUserRejection(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == userRejectedCode
	}
	return strings.Contains(strings.ToLower(err.Error()), "user rejected")
}

// New selects the provider variant for the configuration: a configured
// endpoint gets the extension adapter, everything else the null provider.
func New(ctx context.Context, cfg *config.ProviderConfig) Provider {
	if cfg == nil || cfg.Endpoint == "" {
		log.Warn("no wallet endpoint configured, using null provider")
		return NewNullProvider()
	}
	return NewExtensionProvider(ctx, cfg)
}
