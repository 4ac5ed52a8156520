package networks

import (
	"fmt"

	"github.com/dappforge/walletbridge/types"
)

// NetworkInfo is the read-only reference record for a known network.
type NetworkInfo struct {
	Name     string
	ChainID  types.ChainID
	Explorer string
	Currency string
}

// Registry maps chain ids to network metadata. It is populated once at
// construction and never mutated, so it is safe for concurrent reads.
type Registry struct {
	byID map[types.ChainID]NetworkInfo
}

// NewRegistry returns a registry seeded with the well-known networks.
func NewRegistry() *Registry {
	return newRegistry(
		NetworkInfo{Name: "Ethereum Mainnet", ChainID: 1, Explorer: "https://etherscan.io", Currency: "ETH"},
		NetworkInfo{Name: "Sepolia", ChainID: 11155111, Explorer: "https://sepolia.etherscan.io", Currency: "ETH"},
		NetworkInfo{Name: "Holesky", ChainID: 17000, Explorer: "https://holesky.etherscan.io", Currency: "ETH"},
		NetworkInfo{Name: "Polygon", ChainID: 137, Explorer: "https://polygonscan.com", Currency: "POL"},
		NetworkInfo{Name: "Polygon Amoy", ChainID: 80002, Explorer: "https://amoy.polygonscan.com", Currency: "POL"},
	)
}

func newRegistry(infos ...NetworkInfo) *Registry {
	byID := make(map[types.ChainID]NetworkInfo, len(infos))
	for _, info := range infos {
		byID[info.ChainID] = info
	}
	return &Registry{byID: byID}
}

// Lookup returns the metadata for a chain id, if registered.
func (r *Registry) Lookup(chainID types.ChainID) (NetworkInfo, bool) {
	info, ok := r.byID[chainID]
	return info, ok
}

// Name returns the display name for a chain id, falling back to
// "Chain ID <n>" for unregistered ids.
func (r *Registry) Name(chainID types.ChainID) string {
	if info, ok := r.byID[chainID]; ok {
		return info.Name
	}
	return fmt.Sprintf("Chain ID %d", uint64(chainID))
}

// Names maps chain ids to display names, in input order.
func (r *Registry) Names(chainIDs []types.ChainID) []string {
	names := make([]string, 0, len(chainIDs))
	for _, id := range chainIDs {
		names = append(names, r.Name(id))
	}
	return names
}
