package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lifecycle topic names published on the event bus. External listeners
// subscribe by these names, so they are part of the wire contract.
const (
	TopicConnected       = "wallet-connected"
	TopicDisconnected    = "wallet-disconnected"
	TopicChainChanged    = "wallet-chain-changed"
	TopicAccountsChanged = "wallet-accounts-changed"
	TopicStateChanged    = "wallet-state-changed"
)

// LifecycleEvent is the envelope delivered to bus subscribers and relayed to
// API clients listening on the events channel.
type LifecycleEvent struct {
	ID         uuid.UUID       `json:"id"`
	Topic      string          `json:"topic"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreateTime time.Time       `json:"createTime"`
}

// ConnectedBody is the payload of a wallet-connected event.
type ConnectedBody struct {
	Account Account `json:"account"`
	ChainID ChainID `json:"chainId"`
}

// DisconnectedBody is the payload of a wallet-disconnected event.
type DisconnectedBody struct{}

// AccountsChangedBody is the payload of a wallet-accounts-changed event.
type AccountsChangedBody struct {
	Account Account `json:"account"`
}

// ChainChangedBody carries the states observed around a live chain swap.
type ChainChangedBody struct {
	OldState ConnectionState `json:"oldState"`
	NewState ConnectionState `json:"newState"`
	ChainID  ChainID         `json:"chainId"`
}

// StateChangedBody is published by the manager's state setter whenever the
// connection state actually changes.
type StateChangedBody struct {
	OldState ConnectionState `json:"oldState"`
	NewState ConnectionState `json:"newState"`
}
