package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Account is a lowercase hex wallet address. The zero value means no account.
type Account string

const NoAccount = Account("")

// NewAccount normalizes a raw hex address to its canonical lowercase form.
// An invalid hex address maps to NoAccount.
func NewAccount(raw string) Account {
	if !common.IsHexAddress(raw) {
		return NoAccount
	}
	return Account(strings.ToLower(common.HexToAddress(raw).Hex()))
}

func (a Account) IsZero() bool {
	return a == NoAccount
}

func (a Account) String() string {
	return string(a)
}

// Truncate renders the short display form of an address: the first 6
// characters (including the 0x prefix), an ellipsis, and the last 4.
func (a Account) Truncate() string {
	s := string(a)
	if len(s) <= 10 {
		return s
	}
	return s[:6] + "…" + s[len(s)-4:]
}

// ChainID identifies a blockchain network. Zero means unknown.
type ChainID uint64

func (c ChainID) String() string {
	return fmt.Sprintf("%d", uint64(c))
}

// ConnectionState is the wallet connection lifecycle state owned by the
// manager. Transitions happen only through the manager's internal setter.
type ConnectionState string

const (
	StateDisconnected    ConnectionState = "disconnected"
	StateConnecting      ConnectionState = "connecting"
	StateConnected       ConnectionState = "connected"
	StateNetworkMismatch ConnectionState = "network_mismatch"
	StateError           ConnectionState = "error"
)

func (s ConnectionState) String() string {
	return string(s)
}

// Severity classifies a user-visible notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// InstallPrompt describes the install offer shown when no wallet is found.
// Desktop agents get the install page, mobile agents a deep link that opens
// the current URL inside the wallet's in-app browser.
type InstallPrompt struct {
	InstallURL string `json:"installUrl,omitempty"`
	DeepLink   string `json:"deepLink,omitempty"`
	Mobile     bool   `json:"mobile"`
}
