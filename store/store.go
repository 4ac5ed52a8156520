package store

import (
	"encoding/json"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("store")

// Prefix namespaces every key to avoid collisions with unrelated data kept in
// the same backing store.
const Prefix = "wallet_v1_"

// KeyConnected records whether the user previously completed a successful
// connection. It only gates silent reconnection on startup; the wallet is the
// source of truth for the actual connection.
const KeyConnected = "connected"

// Store is an advisory key/value persistence surface. Backend failures are
// logged and degraded to the caller-supplied default, never propagated;
// correctness must not depend on a value surviving.
type Store interface {
	Save(key string, value interface{})
	LoadString(key string, def string) string
	LoadBool(key string, def bool) bool
	Remove(key string)
	Close() error
}

// encode stringifies a value for storage. Strings pass through untouched,
// everything else is JSON-encoded.
func encode(value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// decodeString undoes encode for string reads. A stored JSON string decodes
// back to its value; anything that fails to decode is returned raw.
func decodeString(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return raw
}

func decodeBool(raw string, def bool) bool {
	var b bool
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		log.Warnf("stored value %q is not a bool, using default", raw)
		return def
	}
	return b
}
